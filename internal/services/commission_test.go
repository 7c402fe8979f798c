// internal/services/commission_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storelink/storelink-backend/internal/models"
)

func TestCalculateCommissionPercentage(t *testing.T) {
	cfg := CommissionConfig{Type: models.CommissionTypePercentage, Rate: 50}

	commission, err := CalculateCommission(50, 30, 2, cfg)
	assert.NoError(t, err)
	assert.Equal(t, 20.0, commission)
}

func TestCalculateCommissionFixed(t *testing.T) {
	cfg := CommissionConfig{Type: models.CommissionTypeFixed, Rate: 500}

	// Fixed rate is per-unit hundredths; prices are irrelevant.
	commission, err := CalculateCommission(999, 1, 3, cfg)
	assert.NoError(t, err)
	assert.Equal(t, 15.0, commission)

	commission, err = CalculateCommission(1, 999, 3, cfg)
	assert.NoError(t, err)
	assert.Equal(t, 15.0, commission)
}

func TestCalculateCommissionClampsNegative(t *testing.T) {
	cfg := CommissionConfig{Type: models.CommissionTypePercentage, Rate: 100}

	// Selling below base would be a negative commission; it clamps to zero.
	commission, err := CalculateCommission(20, 30, 2, cfg)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, commission)
}

func TestCalculateCommissionFullRate(t *testing.T) {
	cfg := CommissionConfig{Type: models.CommissionTypePercentage, Rate: 100}

	// Rate 100 pays out the entire margin.
	commission, err := CalculateCommission(50, 30, 2, cfg)
	assert.NoError(t, err)
	assert.Equal(t, 40.0, commission)
}

func TestCalculateCommissionCentsExact(t *testing.T) {
	cfg := CommissionConfig{Type: models.CommissionTypePercentage, Rate: 10}

	// 0.1+0.2 style float drift must not leak into commissions.
	commission, err := CalculateCommission(10.30, 10.10, 1, cfg)
	assert.NoError(t, err)
	assert.InDelta(t, 0.02, commission, 1e-9)
}

func TestCalculateCommissionInvalidInputs(t *testing.T) {
	cfg := CommissionConfig{Type: models.CommissionTypePercentage, Rate: 50}

	_, err := CalculateCommission(50, 30, 0, cfg)
	assert.ErrorIs(t, err, ErrInvalidCommissionConfig)

	_, err = CalculateCommission(-1, 30, 1, cfg)
	assert.ErrorIs(t, err, ErrInvalidCommissionConfig)

	_, err = CalculateCommission(50, -1, 1, cfg)
	assert.ErrorIs(t, err, ErrInvalidCommissionConfig)

	_, err = CalculateCommission(50, 30, 1, CommissionConfig{Type: models.CommissionTypePercentage, Rate: -5})
	assert.ErrorIs(t, err, ErrInvalidCommissionConfig)

	_, err = CalculateCommission(50, 30, 1, CommissionConfig{Type: "tiered", Rate: 5})
	assert.ErrorIs(t, err, ErrInvalidCommissionConfig)
}
