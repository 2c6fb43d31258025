package handler

import (
	"fmt"

	"github.com/shopspring/decimal"

	"club-recon/internal/domain"
)

// toSplitLines parses request line amounts as exact decimals. Amounts travel
// as strings so no float rounding slips into the sum invariant.
func toSplitLines(reqs []SplitLineRequest) ([]domain.SplitLine, error) {
	lines := make([]domain.SplitLine, 0, len(reqs))
	for i, r := range reqs {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, domain.SplitLine{
			Description: r.Description,
			Amount:      amount,
			CategoryID:  r.CategoryID,
			AccountCode: r.AccountCode,
			Notes:       r.Notes,
		})
	}
	return lines, nil
}
