// internal/services/commission.go
package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/storelink/storelink-backend/internal/models"
)

var ErrInvalidCommissionConfig = errors.New("invalid commission configuration")

// CommissionConfig selects the calculation mode.
//
// percentage: Rate is a percent of profit, commission = (selling-base)*qty*Rate/100.
// fixed: Rate is a per-unit amount in hundredths, commission = Rate/100*qty.
type CommissionConfig struct {
	Type models.CommissionType
	Rate float64
}

// CalculateCommission computes the affiliate commission for one order using
// price snapshots taken at order creation. Negative results in percentage
// mode (a storefront priced below base) are clamped to zero. Decimal math
// keeps the cents exact; callers store the float64 result in decimal(12,2)
// columns.
func CalculateCommission(sellingPrice, basePrice float64, quantity int, cfg CommissionConfig) (float64, error) {
	if quantity < 1 {
		return 0, fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidCommissionConfig, quantity)
	}
	if sellingPrice < 0 || basePrice < 0 {
		return 0, fmt.Errorf("%w: prices must not be negative", ErrInvalidCommissionConfig)
	}
	if cfg.Rate < 0 {
		return 0, fmt.Errorf("%w: rate must not be negative", ErrInvalidCommissionConfig)
	}

	qty := decimal.NewFromInt(int64(quantity))
	rate := decimal.NewFromFloat(cfg.Rate)

	var commission decimal.Decimal
	switch cfg.Type {
	case models.CommissionTypePercentage:
		profit := decimal.NewFromFloat(sellingPrice).Sub(decimal.NewFromFloat(basePrice))
		commission = profit.Mul(qty).Mul(rate).Div(decimal.NewFromInt(100))
	case models.CommissionTypeFixed:
		commission = rate.Div(decimal.NewFromInt(100)).Mul(qty)
	default:
		return 0, fmt.Errorf("%w: unknown commission type %q", ErrInvalidCommissionConfig, cfg.Type)
	}

	if commission.IsNegative() {
		return 0, nil
	}

	result, _ := commission.Float64()
	return result, nil
}
