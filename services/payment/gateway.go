package payment

import "context"

// Gateway error codes surfaced to callers.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	// ErrInsufficientFunds means the hold authorization was declined.
	ErrInsufficientFunds = &GatewayError{Code: "insufficientFunds", Message: "hold authorization declined"}
	// ErrGatewayTimeout means the processor did not answer within the bound.
	ErrGatewayTimeout = &GatewayError{Code: "gatewayTimeout", Message: "payment gateway timed out"}
	// ErrCaptureFailed means converting the hold into a charge failed.
	ErrCaptureFailed = &GatewayError{Code: "captureFailed", Message: "capture failed"}
	// ErrReleaseFailed means returning unused funds failed. Best-effort.
	ErrReleaseFailed = &GatewayError{Code: "releaseFailed", Message: "release failed"}
)

// HoldGateway is the consumed payment-processor contract. Amounts are cents.
// A hold reserves funds; Capture charges up to the held amount; Release
// returns the unused remainder.
type HoldGateway interface {
	Authorize(ctx context.Context, amount int64, payerRef string) (holdID string, err error)
	Capture(ctx context.Context, holdID string, amount int64) error
	Release(ctx context.Context, holdID string, amount int64) error
}
