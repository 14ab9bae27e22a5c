package guest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(i *Identity) http.Handler {
	r := gin.New()
	r.GET("/whoami", i.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, GuestID(c))
	})
	return r
}

func TestMiddlewareMintsIdentity(t *testing.T) {
	h := testRouter(New(make([]byte, 32), make([]byte, 32)))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	require.Equal(t, http.StatusOK, w.Code)
	_, err := uuid.Parse(w.Body.String())
	require.NoError(t, err, "guest id is a uuid")
	require.NotEmpty(t, w.Result().Cookies())
}

func TestMiddlewareRoundTripsIdentity(t *testing.T) {
	h := testRouter(New(make([]byte, 32), make([]byte, 32)))

	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	cookies := w1.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, req)

	assert.Equal(t, w1.Body.String(), w2.Body.String(), "same cookie, same guest")
	assert.Empty(t, w2.Result().Cookies(), "no re-mint for a known guest")
}

func TestMiddlewareRejectsTamperedCookie(t *testing.T) {
	h := testRouter(New(make([]byte, 32), make([]byte, 32)))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "roomly_guest", Value: "forged"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	_, err := uuid.Parse(w.Body.String())
	require.NoError(t, err, "a fresh identity replaces the bad cookie")
	assert.NotEmpty(t, w.Result().Cookies())
}
