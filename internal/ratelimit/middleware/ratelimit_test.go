package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"unireg/internal/ratelimit/middleware"
	"unireg/internal/ratelimit/models"
	"unireg/internal/ratelimit/service"
	"unireg/internal/ratelimit/store/blacklist"
	"unireg/internal/ratelimit/store/staticlist"
	"unireg/internal/ratelimit/store/window"
	"unireg/pkg/requestcontext"
)

type MiddlewareSuite struct {
	suite.Suite
	statics *staticlist.MemoryStore
	handler http.Handler
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.statics = staticlist.NewMemory()
	svc, err := service.New(window.NewMemory(), blacklist.NewMemory(), s.statics,
		service.Config{
			Window:      time.Minute,
			Quotas:      map[models.TrafficClass]int{models.ClassPrivate: 2},
			BanDuration: 10 * time.Minute,
		},
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)

	limited := middleware.RateLimit(svc, models.ClassPrivate)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	s.handler = limited
}

func (s *MiddlewareSuite) request(ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	if ip != "" {
		req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "test"))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *MiddlewareSuite) TestAllowedRequestsCarryQuotaHeaders() {
	rec := s.request("198.51.100.1")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("2", rec.Header().Get("X-RateLimit-Limit"))
	s.Equal("1", rec.Header().Get("X-RateLimit-Remaining"))
}

func (s *MiddlewareSuite) TestQuotaViolationAnswers429() {
	for i := 0; i < 2; i++ {
		rec := s.request("198.51.100.2")
		s.Require().Equal(http.StatusOK, rec.Code)
	}

	rec := s.request("198.51.100.2")
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal("600", rec.Header().Get("Retry-After"))
	s.JSONEq(`{"error":"QUOTA_EXCEEDED"}`, rec.Body.String())

	s.Run("subsequent requests answer 403", func() {
		rec := s.request("198.51.100.2")
		s.Equal(http.StatusForbidden, rec.Code)
		s.JSONEq(`{"error":"BLACKLIST_DYNAMIC"}`, rec.Body.String())
	})
}

func (s *MiddlewareSuite) TestStaticallyBlacklistedAnswers403() {
	err := s.statics.Add(s.T().Context(), models.BlacklistEntry{Address: "203.0.113.1", Reason: "abuse"})
	s.Require().NoError(err)

	rec := s.request("203.0.113.1")
	s.Equal(http.StatusForbidden, rec.Code)
	s.JSONEq(`{"error":"BLACKLIST_STATIC"}`, rec.Body.String())
}

func (s *MiddlewareSuite) TestUnresolvedAddressFailsClosed() {
	rec := s.request("")
	require.Equal(s.T(), http.StatusServiceUnavailable, rec.Code)
}
