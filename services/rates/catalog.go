package rates

import (
	"fmt"

	"soulseer/models"
)

// Default per-minute rates in cents by session type.
var defaultRates = map[string]int64{
	models.SessionTypeChat:  399,
	models.SessionTypePhone: 499,
	models.SessionTypeVideo: 699,
}

type rateKey struct {
	ReaderID    string
	SessionType string
}

// Catalog resolves the per-minute rate for a (reader, session type) pair.
// It is built once at startup and never mutated afterwards.
type Catalog struct {
	overrides map[rateKey]int64
}

// Override names a reader-specific per-minute rate in cents.
type Override struct {
	ReaderID    string
	SessionType string
	RatePerMin  int64
}

// NewCatalog builds an immutable catalog from reader-specific overrides.
// Unlisted pairs fall back to the default rate for the session type.
func NewCatalog(overrides []Override) (*Catalog, error) {
	c := &Catalog{overrides: make(map[rateKey]int64, len(overrides))}
	for _, o := range overrides {
		if _, ok := defaultRates[o.SessionType]; !ok {
			return nil, fmt.Errorf("unknown session type %q for reader %s", o.SessionType, o.ReaderID)
		}
		if o.RatePerMin <= 0 {
			return nil, fmt.Errorf("non-positive rate for reader %s (%s)", o.ReaderID, o.SessionType)
		}
		c.overrides[rateKey{o.ReaderID, o.SessionType}] = o.RatePerMin
	}
	return c, nil
}

// Resolve returns the per-minute rate in cents for the pair.
func (c *Catalog) Resolve(readerID, sessionType string) (int64, error) {
	if rate, ok := c.overrides[rateKey{readerID, sessionType}]; ok {
		return rate, nil
	}
	rate, ok := defaultRates[sessionType]
	if !ok {
		return 0, fmt.Errorf("unknown session type %q", sessionType)
	}
	return rate, nil
}
