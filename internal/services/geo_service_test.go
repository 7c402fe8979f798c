// internal/services/geo_service_test.go
package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeGeoProvider struct {
	info *GeoInfo
}

func (p *fakeGeoProvider) Lookup(ctx context.Context, ip string) *GeoInfo {
	return p.info
}

// settingsWithValues builds a settings service with a pre-filled cache so
// gate tests never touch a database.
func settingsWithValues(values map[string]string) *SettingsService {
	s := NewSettingsService(nil)
	s.cache = values
	return s
}

func TestGateRejectsWhenOrderingDisabled(t *testing.T) {
	gate := NewGeoGateService(
		&fakeGeoProvider{info: &GeoInfo{CountryCode: "US"}},
		settingsWithValues(map[string]string{
			SettingPublicOrderingEnabled: "false",
		}),
	)

	decision := gate.Check(context.Background(), "1.2.3.4")
	assert.False(t, decision.Allowed)
	assert.Equal(t, GateReasonOrdersDisabled, decision.Reason)
}

func TestGateRejectsRestrictedCountry(t *testing.T) {
	gate := NewGeoGateService(
		&fakeGeoProvider{info: &GeoInfo{CountryCode: "IN"}},
		settingsWithValues(map[string]string{
			SettingPublicOrderingEnabled: "true",
			SettingRestrictedCountries:   "IN, KP",
			SettingGeoRejectionMessage:   "Not available in your region.",
		}),
	)

	decision := gate.Check(context.Background(), "1.2.3.4")
	assert.False(t, decision.Allowed)
	assert.Equal(t, GateReasonRestrictedRegion, decision.Reason)
	assert.Equal(t, "Not available in your region.", decision.Message)
}

func TestGateRestrictedCountryCaseInsensitive(t *testing.T) {
	gate := NewGeoGateService(
		&fakeGeoProvider{info: &GeoInfo{CountryCode: "in"}},
		settingsWithValues(map[string]string{
			SettingPublicOrderingEnabled: "true",
			SettingRestrictedCountries:   "IN",
		}),
	)

	decision := gate.Check(context.Background(), "1.2.3.4")
	assert.False(t, decision.Allowed)
	assert.Equal(t, GateReasonRestrictedRegion, decision.Reason)
}

func TestGateRejectsVPNSignals(t *testing.T) {
	settings := map[string]string{
		SettingPublicOrderingEnabled: "true",
	}

	cases := []struct {
		name string
		info GeoInfo
	}{
		{"proxy flag", GeoInfo{CountryCode: "US", Proxy: true}},
		{"hosting flag", GeoInfo{CountryCode: "US", Hosting: true}},
		{"org keyword", GeoInfo{CountryCode: "US", Org: "SuperVPN Inc"}},
		{"isp keyword", GeoInfo{CountryCode: "US", ISP: "Acme Data Center LLC"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gate := NewGeoGateService(&fakeGeoProvider{info: &tc.info}, settingsWithValues(settings))
			decision := gate.Check(context.Background(), "1.2.3.4")
			assert.False(t, decision.Allowed)
			assert.Equal(t, GateReasonVPNDetected, decision.Reason)
		})
	}
}

func TestGateAllowsCleanOrigin(t *testing.T) {
	gate := NewGeoGateService(
		&fakeGeoProvider{info: &GeoInfo{CountryCode: "US", Org: "Comcast", ISP: "Comcast"}},
		settingsWithValues(map[string]string{
			SettingPublicOrderingEnabled: "true",
			SettingRestrictedCountries:   "IN",
		}),
	)

	decision := gate.Check(context.Background(), "1.2.3.4")
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.Reason)
}

func TestGateFailsOpenOnLookupFailure(t *testing.T) {
	gate := NewGeoGateService(
		&fakeGeoProvider{info: nil},
		settingsWithValues(map[string]string{
			SettingPublicOrderingEnabled: "true",
			SettingRestrictedCountries:   "IN",
		}),
	)

	decision := gate.Check(context.Background(), "1.2.3.4")
	assert.True(t, decision.Allowed)
}

func TestClientIPHeaderPreference(t *testing.T) {
	headers := http.Header{}
	headers.Set("CF-Connecting-IP", "1.1.1.1")
	headers.Set("X-Forwarded-For", "2.2.2.2, 3.3.3.3")
	headers.Set("X-Real-IP", "4.4.4.4")

	assert.Equal(t, "1.1.1.1", ClientIP(headers, "5.5.5.5:1234"))

	headers.Del("CF-Connecting-IP")
	assert.Equal(t, "2.2.2.2", ClientIP(headers, "5.5.5.5:1234"))

	headers.Del("X-Forwarded-For")
	assert.Equal(t, "4.4.4.4", ClientIP(headers, "5.5.5.5:1234"))

	headers.Del("X-Real-IP")
	assert.Equal(t, "5.5.5.5", ClientIP(headers, "5.5.5.5:1234"))
}

func TestClientIPFallbacks(t *testing.T) {
	assert.Equal(t, "9.9.9.9", ClientIP(http.Header{}, "9.9.9.9"))
	assert.Equal(t, "127.0.0.1", ClientIP(http.Header{}, ""))
}
