package payment

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// StripeHoldGateway implements HoldGateway with manual-capture
// PaymentIntents: Authorize confirms an intent without capturing, Capture
// takes the accrued amount, Release cancels an uncaptured intent. Stripe
// returns the uncaptured remainder of a partial capture on its own.
type StripeHoldGateway struct {
	logger   *zap.Logger
	currency string
}

func NewStripeHoldGateway(logger *zap.Logger, currency string) *StripeHoldGateway {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeHoldGateway{logger: logger, currency: currency}
}

func (g *StripeHoldGateway) Authorize(ctx context.Context, amount int64, payerRef string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Params:        stripe.Params{Context: ctx},
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(g.currency),
		Customer:      stripe.String(payerRef),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", g.translate(err, ErrInsufficientFunds)
	}
	g.logger.Info("authorized hold",
		zap.String("holdID", pi.ID), zap.Int64("amount", amount), zap.String("payer", payerRef))
	return pi.ID, nil
}

func (g *StripeHoldGateway) Capture(ctx context.Context, holdID string, amount int64) error {
	params := &stripe.PaymentIntentCaptureParams{
		Params:          stripe.Params{Context: ctx},
		AmountToCapture: stripe.Int64(amount),
	}
	if _, err := paymentintent.Capture(holdID, params); err != nil {
		return g.translate(err, ErrCaptureFailed)
	}
	g.logger.Info("captured hold", zap.String("holdID", holdID), zap.Int64("amount", amount))
	return nil
}

func (g *StripeHoldGateway) Release(ctx context.Context, holdID string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	params := &stripe.PaymentIntentCancelParams{Params: stripe.Params{Context: ctx}}
	if _, err := paymentintent.Cancel(holdID, params); err != nil {
		var sErr *stripe.Error
		if errors.As(err, &sErr) && sErr.Code == stripe.ErrorCodePaymentIntentUnexpectedState {
			// Already captured; Stripe has released the remainder itself.
			return nil
		}
		return g.translate(err, ErrReleaseFailed)
	}
	g.logger.Info("released hold", zap.String("holdID", holdID), zap.Int64("amount", amount))
	return nil
}

// translate maps Stripe and context failures onto the gateway error taxonomy.
func (g *StripeHoldGateway) translate(err error, fallback *GatewayError) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrGatewayTimeout
	}
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		if sErr.Code == stripe.ErrorCodeCardDeclined {
			return ErrInsufficientFunds
		}
		g.logger.Warn("stripe call failed",
			zap.String("code", string(sErr.Code)), zap.String("msg", sErr.Msg))
	}
	return fallback
}
