package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwthelp "github.com/Skotchmaster/sport_shop/pkg/jwt"
	"github.com/Skotchmaster/sport_shop/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

type stubRefresher struct {
	pair  *tokens.Pair
	err   error
	calls int
}

func (s *stubRefresher) Refresh(_ context.Context, _ string) (*tokens.Pair, error) {
	s.calls++
	return s.pair, s.err
}

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"role":    c.Get("role"),
		"name":    c.Get("name"),
	})
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func signAccess(t *testing.T, role string, exp time.Time) (string, string) {
	t.Helper()
	id := uuid.NewString()
	tok, err := tokens.SignAccess(secret, id, role, "Jane", exp)
	require.NoError(t, err)
	return id, tok
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	return he.Code
}

func TestRequireAuth_CookieToken(t *testing.T) {
	id, tok := signAccess(t, tokens.RoleUser, time.Now().Add(time.Minute))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: jwthelp.AccessCookie, Value: tok})
	c, rec := newContext(req)

	mw := NewAutoRefreshMiddleware(secret, nil)
	require.NoError(t, mw.RequireAuth(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, c.Get("user_id"))
	assert.Equal(t, "Jane", c.Get("name"))
}

func TestRequireAuth_BearerToken(t *testing.T) {
	id, tok := signAccess(t, tokens.RoleUser, time.Now().Add(time.Minute))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	c, _ := newContext(req)

	mw := NewAutoRefreshMiddleware(secret, nil)
	require.NoError(t, mw.RequireAuth(okHandler)(c))
	assert.Equal(t, id, c.Get("user_id"))
}

func TestRequireAuth_MissingToken(t *testing.T) {
	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

	err := NewAutoRefreshMiddleware(secret, nil).RequireAuth(okHandler)(c)
	assert.Equal(t, http.StatusUnauthorized, httpCode(t, err))
}

func TestRequireAdmin_ForbidsRegularUser(t *testing.T) {
	_, tok := signAccess(t, tokens.RoleUser, time.Now().Add(time.Minute))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: jwthelp.AccessCookie, Value: tok})
	c, _ := newContext(req)

	err := NewAutoRefreshMiddleware(secret, nil).RequireAdmin(okHandler)(c)
	assert.Equal(t, http.StatusForbidden, httpCode(t, err))
}

func TestRequireAuth_ExpiredCookieIsRefreshed(t *testing.T) {
	_, expired := signAccess(t, tokens.RoleUser, time.Now().Add(-time.Minute))
	userID := uuid.NewString()
	pair, err := tokens.NewPair(secret, []byte("refresh"), userID, tokens.RoleUser, "Jane", time.Now())
	require.NoError(t, err)
	refresher := &stubRefresher{pair: pair}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: jwthelp.AccessCookie, Value: expired})
	req.AddCookie(&http.Cookie{Name: jwthelp.RefreshCookie, Value: "old-refresh"})
	c, rec := newContext(req)

	require.NoError(t, NewAutoRefreshMiddleware(secret, refresher).RequireAuth(okHandler)(c))
	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, userID, c.Get("user_id"))

	cookies := rec.Result().Cookies()
	names := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		names = append(names, ck.Name)
	}
	assert.ElementsMatch(t, []string{jwthelp.AccessCookie, jwthelp.RefreshCookie}, names)
}

func TestRequireAuth_ExpiredBearerIsNotRefreshed(t *testing.T) {
	_, expired := signAccess(t, tokens.RoleUser, time.Now().Add(-time.Minute))
	refresher := &stubRefresher{err: errors.New("unused")}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+expired)
	c, _ := newContext(req)

	err := NewAutoRefreshMiddleware(secret, refresher).RequireAuth(okHandler)(c)
	assert.Equal(t, http.StatusUnauthorized, httpCode(t, err))
	assert.Zero(t, refresher.calls)
}

func TestRequireAuth_RefreshFailureClearsCookies(t *testing.T) {
	_, expired := signAccess(t, tokens.RoleUser, time.Now().Add(-time.Minute))
	refresher := &stubRefresher{err: errors.New("revoked")}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: jwthelp.AccessCookie, Value: expired})
	req.AddCookie(&http.Cookie{Name: jwthelp.RefreshCookie, Value: "old-refresh"})
	c, rec := newContext(req)

	err := NewAutoRefreshMiddleware(secret, refresher).RequireAuth(okHandler)(c)
	assert.Equal(t, http.StatusUnauthorized, httpCode(t, err))
	for _, ck := range rec.Result().Cookies() {
		assert.Equal(t, -1, ck.MaxAge)
	}
}
