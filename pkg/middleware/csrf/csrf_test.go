package csrf

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func run(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, error) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	return rec, Middleware(DefaultConfig())(ok)(c)
}

func TestCSRF_SafeMethodIssuesToken(t *testing.T) {
	rec, err := run(t, httptest.NewRequest(http.MethodGet, "http://example.com/api/products", nil))
	require.NoError(t, err)

	token := rec.Header().Get("X-CSRF-Token")
	assert.NotEmpty(t, token)

	var found bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "XSRF-TOKEN" {
			found = true
			assert.Equal(t, token, ck.Value)
		}
	}
	assert.True(t, found)
}

func TestCSRF_UnsafeMethodRequiresMatchingHeader(t *testing.T) {
	newReq := func(header string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "http://example.com/api/orders", nil)
		req.Header.Set("Origin", "http://example.com")
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "abc"})
		if header != "" {
			req.Header.Set("X-CSRF-Token", header)
		}
		return req
	}

	_, err := run(t, newReq("abc"))
	require.NoError(t, err)

	for _, bad := range []string{"", "abd"} {
		_, err := run(t, newReq(bad))
		var he *echo.HTTPError
		require.True(t, errors.As(err, &he))
		assert.Equal(t, http.StatusForbidden, he.Code)
	}
}

func TestCSRF_RejectsCrossOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/orders", nil)
	req.Header.Set("Origin", "http://evil.test")
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "abc"})
	req.Header.Set("X-CSRF-Token", "abc")

	_, err := run(t, req)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "invalid origin", he.Message)
}

func TestCSRF_BearerRequestsSkipCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer token")

	rec, err := run(t, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
