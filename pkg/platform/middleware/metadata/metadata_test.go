package metadata_test

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"unireg/pkg/platform/middleware/metadata"
	"unireg/pkg/requestcontext"
)

func prefixes(t *testing.T, cidrs ...string) []netip.Prefix {
	t.Helper()
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		p, err := netip.ParsePrefix(c)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func resolve(res *metadata.Resolver, remoteAddr string, headers map[string]string) string {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return res.ClientIPFromRequest(req)
}

func TestClientIPFromRequest(t *testing.T) {
	trusted := metadata.NewResolver(prefixes(t, "10.0.0.0/8"))

	t.Run("untrusted peer resolves to its own address", func(t *testing.T) {
		got := resolve(trusted, "203.0.113.7:4711", map[string]string{
			"X-Forwarded-For": "198.51.100.1",
		})
		require.Equal(t, "203.0.113.7", got)
	})

	t.Run("trusted proxy forwards the client address", func(t *testing.T) {
		got := resolve(trusted, "10.0.0.5:4711", map[string]string{
			"X-Forwarded-For": "198.51.100.1",
		})
		require.Equal(t, "198.51.100.1", got)
	})

	t.Run("chain walks right to left past trusted hops", func(t *testing.T) {
		got := resolve(trusted, "10.0.0.5:4711", map[string]string{
			"X-Forwarded-For": "198.51.100.1, 203.0.113.9, 10.0.0.6",
		})
		require.Equal(t, "203.0.113.9", got)
	})

	t.Run("x-real-ip is a fallback for trusted peers only", func(t *testing.T) {
		got := resolve(trusted, "10.0.0.5:4711", map[string]string{
			"X-Real-IP": "198.51.100.2",
		})
		require.Equal(t, "198.51.100.2", got)

		got = resolve(trusted, "203.0.113.7:4711", map[string]string{
			"X-Real-IP": "198.51.100.2",
		})
		require.Equal(t, "203.0.113.7", got)
	})

	t.Run("empty trusted set ignores all headers", func(t *testing.T) {
		none := metadata.NewResolver(nil)
		got := resolve(none, "203.0.113.7:4711", map[string]string{
			"X-Forwarded-For": "198.51.100.1",
			"X-Real-IP":       "198.51.100.2",
		})
		require.Equal(t, "203.0.113.7", got)
	})

	t.Run("ipv6 peers strip their port", func(t *testing.T) {
		got := resolve(trusted, "[2001:db8::7]:4711", nil)
		require.Equal(t, "2001:db8::7", got)
	})
}

func TestMiddleware(t *testing.T) {
	res := metadata.NewResolver(nil)

	var gotIP, gotUA string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4711"
	req.Header.Set("User-Agent", "curl/8")
	res.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "203.0.113.7", gotIP)
	require.Equal(t, "curl/8", gotUA)
}
