package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimu-app/elimu/core"
	"github.com/elimu-app/elimu/core/auth"
	"github.com/elimu-app/elimu/core/user"
)

var (
	contextIdentityKey = "identity"
	contextUserKey     = "user"
)

// sessionMiddleware authenticates requests from the session cookie. The token
// is verified on every request; any failure yields a 401 without detail on
// whether the envelope, signature or expiry was at fault.
func sessionMiddleware(deps ServerDeps) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			cookie, err := ctx.Cookie(deps.Conf.Server.SessionCookieName)
			if err != nil || cookie.Value == "" {
				return errUnauthorized
			}
			idn, err := deps.TokenSvc.Verify(cookie.Value)
			if err != nil {
				return errUnauthorized
			}
			ctx.Set(contextIdentityKey, idn)
			return next(ctx)
		}
	}
}

func getContextIdentity(ctx echo.Context) (auth.Identity, error) {
	if idn, ok := ctx.Get(contextIdentityKey).(auth.Identity); ok {
		return idn, nil
	}
	return auth.Identity{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	idn, err := getContextIdentity(ctx)
	if err != nil {
		return user.User{}, err
	}

	usr, err := svc.GetByID(ctx.Request().Context(), idn.SubjectID)
	if err != nil {
		// the principal may have been deleted since the token was issued
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func authenticate(ctx echo.Context, uname, pwd string, svc user.Service) (user.User, error) {
	usr, err := svc.Authenticate(ctx.Request().Context(), uname, pwd)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrNotFound:
			return user.User{}, errAuthenticationFailed
		case user.ErrDeactivated:
			return user.User{}, errAccountDeactivated
		}
		return user.User{}, errors.Wrap(err, "authenticating")
	}
	return usr, nil
}

// issueToken signs a fresh session token for an authenticated user.
func issueToken(usr user.User, deps ServerDeps) (string, error) {
	token, err := deps.TokenSvc.Issue(usr.ID, usr.Name, usr.Role, usr.Capabilities...)
	return token, errors.Wrap(err, "issuing token")
}

func newSessionCookie(conf *core.Config, token string, ttlSeconds int) *http.Cookie {
	return &http.Cookie{
		Name:     conf.Server.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   ttlSeconds,
		HttpOnly: true,
		Secure:   !conf.Debug,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredSessionCookie(conf *core.Config) *http.Cookie {
	c := newSessionCookie(conf, "", -1)
	return c
}
