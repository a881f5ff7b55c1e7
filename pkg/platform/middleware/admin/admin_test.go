package admin

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdminToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	logger := slog.New(slog.DiscardHandler)

	tests := []struct {
		name     string
		expected string
		header   string
		status   int
	}{
		{"matching token", "s3cret", "s3cret", http.StatusNoContent},
		{"wrong token", "s3cret", "guess", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"unconfigured token disables the route", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/sessions", nil)
			if tt.header != "" {
				req.Header.Set(HeaderAdminToken, tt.header)
			}
			rec := httptest.NewRecorder()
			RequireAdminToken(tt.expected, logger)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
