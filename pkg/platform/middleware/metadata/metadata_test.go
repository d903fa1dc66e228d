package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"examboard/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := map[string]struct {
		headers map[string]string
		remote  string
		want    string
	}{
		"first forwarded hop": {headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, remote: "10.0.0.2:443", want: "203.0.113.7"},
		"real ip header":      {headers: map[string]string{"X-Real-IP": " 198.51.100.4 "}, remote: "10.0.0.2:443", want: "198.51.100.4"},
		"ipv4 remote":         {remote: "192.0.2.10:52311", want: "192.0.2.10"},
		"ipv6 remote":         {remote: "[2001:db8::1]:8080", want: "2001:db8::1"},
		"remote without port": {remote: "192.0.2.10", want: "192.0.2.10"},
		"no address":          {want: "unknown"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, ClientIPFromRequest(r))
		})
	}
}

func TestClientMetadataStoresIP(t *testing.T) {
	var seen string
	h := ClientMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.ClientIP(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "192.0.2.1", seen)
}
