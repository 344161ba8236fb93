// Package metadata resolves the caller address for downstream admission checks.
//
// Forwarded headers are only honored when the direct peer is a configured
// trusted proxy; otherwise an attacker could spoof X-Forwarded-For and dodge
// blacklists or exhaust someone else's quota. The trusted set is deployment
// configuration, never a per-request choice.
package metadata

import (
	"context"
	"net/http"
	"net/netip"
	"strings"

	"unireg/pkg/requestcontext"
)

// Resolver extracts the real client address from incoming requests.
type Resolver struct {
	trustedProxies []netip.Prefix
}

// NewResolver builds a Resolver trusting the given proxy CIDRs. With an empty
// set, forwarded headers are ignored entirely and RemoteAddr is authoritative.
func NewResolver(trustedProxies []netip.Prefix) *Resolver {
	return &Resolver{trustedProxies: trustedProxies}
}

// Middleware resolves the client IP and User-Agent and stores them in the
// request context. Apply early in the chain, before any admission middleware.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := res.ClientIPFromRequest(r)
		ctx := requestcontext.WithClientMetadata(r.Context(), ip, r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIP retrieves the resolved client address from the context.
func GetClientIP(ctx context.Context) string {
	return requestcontext.ClientIP(ctx)
}

// ClientIPFromRequest resolves the client address. When the direct peer is a
// trusted proxy, it walks X-Forwarded-For right to left and returns the first
// hop outside the trusted set; X-Real-IP is accepted as a fallback. Untrusted
// peers always resolve to their RemoteAddr.
func (res *Resolver) ClientIPFromRequest(r *http.Request) string {
	peer := stripPort(r.RemoteAddr)
	if !res.isTrustedProxy(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !res.isTrustedProxy(hop) {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return peer
}

func (res *Resolver) isTrustedProxy(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, p := range res.trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// stripPort removes the port from a RemoteAddr style "ip:port" or "[v6]:port".
func stripPort(addr string) string {
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return ap.Addr().String()
	}
	return addr
}
