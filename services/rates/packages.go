package rates

import "fmt"

// Package is a prepaid bundle of reading minutes sold at a volume discount
// off the reader's per-minute rate.
type Package struct {
	ID          string `json:"id"`
	ReaderID    string `json:"readerId"`
	SessionType string `json:"sessionType"`
	Minutes     int    `json:"minutes"`
	Price       int64  `json:"price"`     // cents, after discount
	FullPrice   int64  `json:"fullPrice"` // cents, at the per-minute rate
	DiscountPct int    `json:"discountPct"`
}

// Bundle tiers offered for every reader. Discounts round down so a bundle is
// never cheaper than advertised.
var packageTiers = []struct {
	minutes  int
	discount int // percent off
}{
	{10, 5},
	{20, 10},
	{30, 15},
}

// ListPackages derives the discounted bundles for a reader and session type
// from the resolved per-minute rate. Deterministic, cheapest bundle first.
func (c *Catalog) ListPackages(readerID, sessionType string) ([]Package, error) {
	rate, err := c.Resolve(readerID, sessionType)
	if err != nil {
		return nil, err
	}

	out := make([]Package, 0, len(packageTiers))
	for _, tier := range packageTiers {
		full := rate * int64(tier.minutes)
		out = append(out, Package{
			ID:          fmt.Sprintf("pkg_%s_%s_%d", readerID, sessionType, tier.minutes),
			ReaderID:    readerID,
			SessionType: sessionType,
			Minutes:     tier.minutes,
			Price:       full * int64(100-tier.discount) / 100,
			FullPrice:   full,
			DiscountPct: tier.discount,
		})
	}
	return out, nil
}
