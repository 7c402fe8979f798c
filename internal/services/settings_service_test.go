// internal/services/settings_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storelink/storelink-backend/internal/models"
)

func TestSettingsTypedAccessors(t *testing.T) {
	s := settingsWithValues(map[string]string{
		SettingCommissionRate:        "12.5",
		SettingSilverThreshold:       "15",
		SettingAutoPayoutEnabled:     "true",
		SettingRestrictedCountries:   "IN, KP ,",
		SettingPublicOrderingEnabled: "not-a-bool",
	})

	assert.Equal(t, 12.5, s.GetFloat(SettingCommissionRate, DefaultCommissionRate))
	assert.Equal(t, 15, s.GetInt(SettingSilverThreshold, DefaultSilverThreshold))
	assert.True(t, s.GetBool(SettingAutoPayoutEnabled, false))
	assert.Equal(t, []string{"IN", "KP"}, s.GetStringList(SettingRestrictedCountries))

	// Unparseable values fall back.
	assert.False(t, s.GetBool(SettingPublicOrderingEnabled, false))
}

func TestSettingsDefaults(t *testing.T) {
	s := settingsWithValues(map[string]string{})

	assert.Equal(t, DefaultCommissionRate, s.GetFloat(SettingCommissionRate, DefaultCommissionRate))
	assert.Equal(t, DefaultAutoPayoutThreshold, s.GetFloat(SettingAutoPayoutThreshold, DefaultAutoPayoutThreshold))
	assert.Equal(t, DefaultSilverThreshold, s.GetInt(SettingSilverThreshold, DefaultSilverThreshold))
	assert.Equal(t, DefaultGoldThreshold, s.GetInt(SettingGoldThreshold, DefaultGoldThreshold))
	assert.False(t, s.GetBool(SettingPublicOrderingEnabled, false))
	assert.Nil(t, s.GetStringList(SettingRestrictedCountries))
}

func TestSettingsCommissionConfig(t *testing.T) {
	s := settingsWithValues(map[string]string{
		SettingCommissionType: "fixed",
		SettingCommissionRate: "250",
	})

	cfg := s.CommissionConfig()
	assert.Equal(t, models.CommissionTypeFixed, cfg.Type)
	assert.Equal(t, 250.0, cfg.Rate)
}

func TestSettingsCommissionConfigDefaults(t *testing.T) {
	s := settingsWithValues(map[string]string{})

	cfg := s.CommissionConfig()
	assert.Equal(t, models.CommissionTypePercentage, cfg.Type)
	assert.Equal(t, DefaultCommissionRate, cfg.Rate)
}

func TestSettingsGetMissingKey(t *testing.T) {
	s := settingsWithValues(map[string]string{SettingCurrency: "USD"})

	v, ok := s.Get(SettingCurrency)
	assert.True(t, ok)
	assert.Equal(t, "USD", v)

	_, ok = s.Get("nonexistent_key")
	assert.False(t, ok)
}
