// internal/services/settings_service.go
package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelink/storelink-backend/internal/models"
)

// Setting keys and their documented defaults. Every reader goes through the
// typed accessors below; raw string values never leak into call sites.
const (
	SettingCommissionType        = "commission_type"
	SettingCommissionRate        = "commission_rate"
	SettingCurrency              = "currency"
	SettingAutoCreditOnComplete  = "auto_credit_on_complete"
	SettingAutoPayoutEnabled     = "auto_payout_enabled"
	SettingAutoPayoutThreshold   = "auto_payout_threshold"
	SettingSilverThreshold       = "silver_threshold"
	SettingGoldThreshold         = "gold_threshold"
	SettingPublicOrderingEnabled = "public_ordering_enabled"
	SettingRestrictedCountries   = "restricted_countries"
	SettingGeoRejectionMessage   = "geo_rejection_message"
)

const (
	DefaultCommissionType      = models.CommissionTypePercentage
	DefaultCommissionRate      = 100.0
	DefaultAutoPayoutThreshold = 1000.0
	DefaultSilverThreshold     = 10
	DefaultGoldThreshold       = 50
	DefaultGeoRejectionMessage = "Ordering is not available in your region."
)

// SettingsService reads platform_settings with an in-process cache. The cache
// is filled lazily and invalidated whenever an admin writes a setting.
type SettingsService struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache map[string]string
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{
		db:    db,
		cache: nil,
	}
}

func (s *SettingsService) load() (map[string]string, error) {
	s.mu.RLock()
	if s.cache != nil {
		cached := s.cache
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	var settings []models.PlatformSetting
	if err := s.db.Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load platform settings: %w", err)
	}

	m := make(map[string]string, len(settings))
	for _, setting := range settings {
		m[setting.Key] = setting.Value
	}

	s.mu.Lock()
	s.cache = m
	s.mu.Unlock()
	return m, nil
}

// Invalidate drops the cache; the next read reloads from the database.
func (s *SettingsService) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

// Get returns the raw string value and whether the key exists.
func (s *SettingsService) Get(key string) (string, bool) {
	m, err := s.load()
	if err != nil {
		return "", false
	}
	v, ok := m[key]
	return v, ok
}

func (s *SettingsService) GetString(key, fallback string) string {
	if v, ok := s.Get(key); ok && v != "" {
		return v
	}
	return fallback
}

func (s *SettingsService) GetFloat(key string, fallback float64) float64 {
	if v, ok := s.Get(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func (s *SettingsService) GetInt(key string, fallback int) int {
	if v, ok := s.Get(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func (s *SettingsService) GetBool(key string, fallback bool) bool {
	if v, ok := s.Get(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v))); err == nil {
			return b
		}
	}
	return fallback
}

// GetStringList parses a comma-separated value into trimmed entries.
func (s *SettingsService) GetStringList(key string) []string {
	v, ok := s.Get(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// CommissionConfig returns the platform-wide commission configuration.
func (s *SettingsService) CommissionConfig() CommissionConfig {
	commissionType := models.CommissionType(s.GetString(SettingCommissionType, string(DefaultCommissionType)))
	if commissionType != models.CommissionTypePercentage && commissionType != models.CommissionTypeFixed {
		commissionType = DefaultCommissionType
	}

	return CommissionConfig{
		Type: commissionType,
		Rate: s.GetFloat(SettingCommissionRate, DefaultCommissionRate),
	}
}

// List returns all settings rows for the admin surface.
func (s *SettingsService) List() ([]models.PlatformSetting, error) {
	var settings []models.PlatformSetting
	if err := s.db.Order("key asc").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	return settings, nil
}

// Update upserts a setting and invalidates the cache. The previous value is
// returned so the caller can audit the change.
func (s *SettingsService) Update(key, value, description string, adminID uuid.UUID) (oldValue string, err error) {
	var setting models.PlatformSetting
	dbErr := s.db.Where("key = ?", key).First(&setting).Error

	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		setting = models.PlatformSetting{
			Key:         key,
			Value:       value,
			Description: description,
			UpdatedBy:   &adminID,
		}
		if err := s.db.Create(&setting).Error; err != nil {
			return "", fmt.Errorf("failed to create setting: %w", err)
		}
	} else if dbErr != nil {
		return "", fmt.Errorf("database error: %w", dbErr)
	} else {
		oldValue = setting.Value
		setting.Value = value
		if description != "" {
			setting.Description = description
		}
		setting.UpdatedBy = &adminID

		if err := s.db.Save(&setting).Error; err != nil {
			return "", fmt.Errorf("failed to update setting: %w", err)
		}
	}

	s.Invalidate()
	return oldValue, nil
}
