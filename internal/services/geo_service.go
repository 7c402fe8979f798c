// internal/services/geo_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/storelink/storelink-backend/internal/config"
)

// Rejection reason codes returned to the client alongside the 403.
const (
	GateReasonRestrictedRegion = "restricted_region"
	GateReasonVPNDetected      = "vpn_detected"
	GateReasonOrdersDisabled   = "orders_disabled"
)

var vpnOrgKeywords = []string{"vpn", "proxy", "tor", "hosting", "datacenter", "data center", "cloud"}

// GeoInfo is the provider's view of a client IP. A nil GeoInfo means the
// lookup failed and the caller should treat the origin as unknown.
type GeoInfo struct {
	CountryCode string `json:"countryCode"`
	Org         string `json:"org"`
	ISP         string `json:"isp"`
	Proxy       bool   `json:"proxy"`
	Hosting     bool   `json:"hosting"`
}

// GeoLookupProvider resolves an IP to geo/ISP data. Implementations must
// return nil (not an error) when the provider is unreachable.
type GeoLookupProvider interface {
	Lookup(ctx context.Context, ip string) *GeoInfo
}

// HTTPGeoProvider queries an ip-api style JSON endpoint.
type HTTPGeoProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPGeoProvider(cfg config.GeoConfig) *HTTPGeoProvider {
	return &HTTPGeoProvider{
		baseURL: strings.TrimRight(cfg.LookupURL, "/"),
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

func (p *HTTPGeoProvider) Lookup(ctx context.Context, ip string) *GeoInfo {
	url := fmt.Sprintf("%s/%s?fields=countryCode,org,isp,proxy,hosting", p.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logrus.WithError(err).WithField("ip", ip).Warn("Geo lookup failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.WithField("status", resp.StatusCode).Warn("Geo lookup returned non-200")
		return nil
	}

	var info GeoInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		logrus.WithError(err).Warn("Geo lookup response decode failed")
		return nil
	}

	return &info
}

// GeoGateService gates public order creation on country and VPN/proxy
// heuristics. Lookup failure fails open: the request proceeds to the
// public-ordering-enabled check instead of being rejected.
type GeoGateService struct {
	provider GeoLookupProvider
	settings *SettingsService
}

func NewGeoGateService(provider GeoLookupProvider, settings *SettingsService) *GeoGateService {
	return &GeoGateService{
		provider: provider,
		settings: settings,
	}
}

type GateDecision struct {
	Allowed bool
	Reason  string
	Message string
}

// Check evaluates the gate for a client IP. Order of checks: public ordering
// flag, restricted country, VPN/proxy heuristics.
func (s *GeoGateService) Check(ctx context.Context, ip string) GateDecision {
	if !s.settings.GetBool(SettingPublicOrderingEnabled, false) {
		return GateDecision{
			Allowed: false,
			Reason:  GateReasonOrdersDisabled,
			Message: "Public ordering is currently disabled.",
		}
	}

	info := s.provider.Lookup(ctx, ip)
	if info == nil {
		// Unknown origin: fail open, the ordering flag already passed.
		return GateDecision{Allowed: true}
	}

	restricted := s.settings.GetStringList(SettingRestrictedCountries)
	for _, code := range restricted {
		if strings.EqualFold(info.CountryCode, code) {
			return GateDecision{
				Allowed: false,
				Reason:  GateReasonRestrictedRegion,
				Message: s.settings.GetString(SettingGeoRejectionMessage, DefaultGeoRejectionMessage),
			}
		}
	}

	if info.Proxy || info.Hosting || matchesVPNKeywords(info.Org) || matchesVPNKeywords(info.ISP) {
		return GateDecision{
			Allowed: false,
			Reason:  GateReasonVPNDetected,
			Message: "Orders cannot be placed through VPN or proxy connections.",
		}
	}

	return GateDecision{Allowed: true}
}

func matchesVPNKeywords(org string) bool {
	lowered := strings.ToLower(org)
	for _, keyword := range vpnOrgKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// ClientIP extracts the originating address from proxy headers, preferring
// cf-connecting-ip, then the first x-forwarded-for hop, then x-real-ip,
// falling back to the connection's remote address.
func ClientIP(headers http.Header, remoteAddr string) string {
	if ip := strings.TrimSpace(headers.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if forwarded := headers.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(headers.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(remoteAddr); err == nil && host != "" {
		return host
	}
	if remoteAddr != "" {
		return remoteAddr
	}
	return "127.0.0.1"
}
