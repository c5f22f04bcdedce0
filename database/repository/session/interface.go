package sessionRepo

import (
	"context"

	"soulseer/models"
)

// Repository persists session state. Save is an idempotent upsert keyed by
// session id so settlement retries never duplicate records.
type Repository interface {
	Save(ctx context.Context, sess models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	SaveSettlement(ctx context.Context, rec models.SettlementRecord) error
}
