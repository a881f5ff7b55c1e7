package requesttime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tokengate/pkg/requestcontext"
)

func TestMiddlewarePinsRequestTime(t *testing.T) {
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("CET", 3600))
	var seen time.Time
	h := MiddlewareWithClock(func() time.Time { return fixed })(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Now(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, fixed.Equal(seen))
	assert.Equal(t, time.UTC, seen.Location())
}
