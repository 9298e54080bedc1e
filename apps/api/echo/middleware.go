package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimu-app/elimu/core/auth"
	"github.com/elimu-app/elimu/core/user"
)

// roleMiddleware rejects principals whose role is not in the allowed set.
// The denial carries the evaluator's reason and never names the allowed roles.
func roleMiddleware(deps ServerDeps, roles ...auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			idn, err := getContextIdentity(ctx)
			if err != nil {
				return err
			}
			if decision := deps.Policy.AuthorizeRole(idn, roles...); !decision.Permitted {
				return echo.NewHTTPError(http.StatusForbidden, decision.Reason)
			}
			return next(ctx)
		}
	}
}

func adminMiddleware(deps ServerDeps) echo.MiddlewareFunc {
	return roleMiddleware(deps, auth.RoleAdmin)
}

// detailAccessMiddleware guards /users/:id. The target record is visible to
// the user themselves, to admins, and to a parent linked to the target
// student. A relationship store failure is a server error, not a denial.
func detailAccessMiddleware(deps ServerDeps) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			idn, err := getContextIdentity(ctx)
			if err != nil {
				return err
			}

			id := ctx.Param("id")
			allowed := id == idn.SubjectID || idn.Role == auth.RoleAdmin
			if !allowed && idn.Role == auth.RoleParent {
				studentIDs, err := deps.Policy.LinkedStudentIDs(ctx.Request().Context(), idn.SubjectID)
				if err != nil {
					return errors.Wrap(err, "resolving linked students")
				}
				for _, sid := range studentIDs {
					if sid == id {
						allowed = true
						break
					}
				}
			}

			if allowed {
				if usr, err := deps.UserSvc.GetByID(ctx.Request().Context(), id); err == nil {
					ctx.Set("object", usr)
					return next(ctx)
				} else if errors.Cause(err) != user.ErrNotFound {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		}
	}
}
