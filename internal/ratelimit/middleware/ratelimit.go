// Package middleware enforces admission control at the HTTP boundary.
package middleware

import (
	"net/http"
	"strconv"

	"unireg/internal/ratelimit/models"
	"unireg/internal/ratelimit/service"
	dErrors "unireg/pkg/domain-errors"
	"unireg/pkg/platform/httputil"
	"unireg/pkg/requestcontext"
)

// RateLimit admits or rejects requests under the given traffic class. Denials
// answer 403 for blacklisted callers and 429 with Retry-After for quota
// violations; when a protection store is down the check fails closed with 503
// rather than letting unmetered traffic through. Requires the metadata
// resolver earlier in the chain, which puts the caller address in context.
func RateLimit(svc *service.Service, class models.TrafficClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			address := requestcontext.ClientIP(r.Context())
			if address == "" {
				// No resolved address means a misassembled chain, not a bad
				// caller. Fail closed all the same.
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "caller address unresolved"))
				return
			}

			decision, err := svc.Admit(r.Context(), address, class)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			switch decision.Reason {
			case models.DenyQuotaExceeded:
				w.Header().Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
				httputil.WriteJSON(w, http.StatusTooManyRequests,
					map[string]string{"error": string(decision.Reason)})
			default:
				if decision.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
				}
				httputil.WriteJSON(w, http.StatusForbidden,
					map[string]string{"error": string(decision.Reason)})
			}
		})
	}
}
