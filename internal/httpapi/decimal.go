package httpapi

import (
	"github.com/shopspring/decimal"

	"tradegate/internal/coreerr"
)

// parseOptionalDecimalPtr converts an optional JSON string field into an
// optional decimal.Decimal, leaving nil untouched.
func parseOptionalDecimalPtr(s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, coreerr.Validationf("invalid decimal %q: %v", *s, err)
	}
	return &d, nil
}
