package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	cases := map[string]struct {
		query string
		want  Pagination
	}{
		"defaults":   {"", Pagination{Limit: 50}},
		"explicit":   {"?limit=10&offset=20", Pagination{Limit: 10, Offset: 20}},
		"capped":     {"?limit=9999", Pagination{Limit: 200}},
		"garbage":    {"?limit=abc&offset=-4", Pagination{Limit: 50}},
		"zero limit": {"?limit=0", Pagination{Limit: 50}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/audit/events"+tc.query, nil)
			assert.Equal(t, tc.want, ParsePagination(r, 50, 200))
		})
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "10.0.0.7", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}
