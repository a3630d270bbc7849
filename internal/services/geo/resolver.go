// Package geo resolves the caller's approximate coordinates from their
// network origin. The resolved fix is authoritative: it is never overridden
// by model output.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// Status reports whether a fix could be resolved.
type Status string

const (
	StatusResolved    Status = "resolved"
	StatusUnavailable Status = "unavailable"
)

// Fix is the caller's resolved position.
type Fix struct {
	Latitude  float64
	Longitude float64
	Status    Status
}

// Resolver produces a Fix for a caller network origin.
type Resolver interface {
	Resolve(ctx context.Context, callerIP string) (Fix, error)
}

// IPResolver resolves coordinates through an IP geolocation service. When
// the caller origin is missing or not publicly routable (local testing,
// private networks), it first asks an IP echo service for the egress address.
type IPResolver struct {
	client    *http.Client
	lookupURL string // echo service returning {"ip": "..."}
	geoURL    string // geolocation service, %s replaced with the IP
}

// NewIPResolver creates a resolver using the given endpoints.
func NewIPResolver(client *http.Client, lookupURL, geoURL string) *IPResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &IPResolver{client: client, lookupURL: lookupURL, geoURL: geoURL}
}

// Resolve returns the caller's coordinates. On any failure the returned Fix
// carries StatusUnavailable alongside the error so the caller can short
// circuit without inspecting the cause.
func (r *IPResolver) Resolve(ctx context.Context, callerIP string) (Fix, error) {
	unavailable := Fix{Status: StatusUnavailable}

	ip := normalizeIP(callerIP)
	if ip == "" {
		var err error
		ip, err = r.publicIP(ctx)
		if err != nil {
			return unavailable, err
		}
	}

	var payload struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := r.getJSON(ctx, fmt.Sprintf(r.geoURL, ip), &payload); err != nil {
		return unavailable, err
	}
	if payload.Latitude == nil || payload.Longitude == nil {
		return unavailable, fmt.Errorf("no coordinates for IP %s", ip)
	}

	log.Debug().Str("ip", ip).Float64("lat", *payload.Latitude).Float64("lon", *payload.Longitude).Msg("resolved caller location")
	return Fix{Latitude: *payload.Latitude, Longitude: *payload.Longitude, Status: StatusResolved}, nil
}

func (r *IPResolver) publicIP(ctx context.Context) (string, error) {
	var payload struct {
		IP string `json:"ip"`
	}
	if err := r.getJSON(ctx, r.lookupURL, &payload); err != nil {
		return "", err
	}
	if payload.IP == "" {
		return "", fmt.Errorf("unable to determine public IP address")
	}
	return payload.IP, nil
}

func (r *IPResolver) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geolocation service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode geolocation response: %w", err)
	}
	return nil
}

// normalizeIP strips any port and returns the address only if it is publicly
// routable; geolocation services cannot place loopback or RFC1918 addresses.
func normalizeIP(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	ip := net.ParseIP(addr)
	if ip == nil {
		return ""
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
		return ""
	}
	return ip.String()
}
