package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sport_shop/internal/service/auth"
	"github.com/Skotchmaster/sport_shop/internal/transport"
	jwthelp "github.com/Skotchmaster/sport_shop/pkg/jwt"
	"github.com/Skotchmaster/sport_shop/pkg/logging"
	middleware "github.com/Skotchmaster/sport_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/sport_shop/pkg/tokens"
)

type UsersHTTP struct {
	Svc *auth.AuthService
}

func (h *UsersHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.register")

	var req transport.RegisterRequest
	if err := bind(c, &req); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_failed", err, "cannot register user")
	}

	setCookies(c, res)
	return c.JSON(http.StatusCreated, res)
}

func (h *UsersHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.login")

	var req transport.LoginRequest
	if err := bind(c, &req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_failed", err, "cannot log in")
	}

	setCookies(c, res)
	return c.JSON(http.StatusOK, res)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refreshToken prefers the cookie and falls back to the body for bearer clients.
func refreshToken(c echo.Context) string {
	if ck, err := c.Cookie(jwthelp.RefreshCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}

func (h *UsersHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.refresh")

	token := refreshToken(c)
	if token == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token missing")
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	pair, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		middleware.ClearAuthCookies(c)
		return fail(l, "refresh_failed", err, "cannot refresh token")
	}

	middleware.SetAuthCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":       pair.AccessToken,
		"refresh_token":      pair.RefreshToken,
		"access_expires_at":  pair.AccessExp,
		"refresh_expires_at": pair.RefreshExp,
	})
}

func (h *UsersHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.logout")

	if err := h.Svc.LogOut(ctx, refreshToken(c)); err != nil {
		return fail(l, "logout_failed", err, "cannot log out")
	}

	middleware.ClearAuthCookies(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *UsersHTTP) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.get_profile")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	u, err := h.Svc.Profile(ctx, p)
	if err != nil {
		return fail(l, "get_profile_failed", err, "cannot get profile")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UsersHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update_profile")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req transport.UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		l.Warn("update_profile_failed", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	res, err := h.Svc.UpdateProfile(ctx, p, req)
	if err != nil {
		return fail(l, "update_profile_failed", err, "cannot update profile")
	}

	setCookies(c, res)
	return c.JSON(http.StatusOK, res)
}

func (h *UsersHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.list_users")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	users, err := h.Svc.ListUsers(ctx, p)
	if err != nil {
		return fail(l, "list_users_failed", err, "cannot list users")
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UsersHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.get_user")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "get_user_failed")
	if err != nil {
		return err
	}
	u, err := h.Svc.GetUser(ctx, p, id)
	if err != nil {
		return fail(l, "get_user_failed", err, "cannot get user")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UsersHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update_user")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "update_user_failed")
	if err != nil {
		return err
	}
	var req transport.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		l.Warn("update_user_failed", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	u, err := h.Svc.UpdateUser(ctx, p, id, req)
	if err != nil {
		return fail(l, "update_user_failed", err, "cannot update user")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UsersHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.delete_user")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "delete_user_failed")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteUser(ctx, p, id); err != nil {
		return fail(l, "delete_user_failed", err, "cannot delete user")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user removed"})
}

func setCookies(c echo.Context, res *transport.LoginResult) {
	middleware.SetAuthCookies(c, &tokens.Pair{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp,
		RefreshExp:   res.RefreshExp,
	})
}
