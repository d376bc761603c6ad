// File: internal/middleware/guard.go
package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
	"github.com/tm-webstudio/service4me-sub000/internal/session"
)

const loginPath = "/login"

// DashboardPath maps a role to its dashboard. Unknown roles fall back to the
// client dashboard rather than an error page.
func DashboardPath(role string) string {
	switch role {
	case common.RoleAdmin:
		return "/admin"
	case common.RoleStylist:
		return "/dashboard/stylist"
	default:
		return "/dashboard/client"
	}
}

// loginRedirect sends an unauthenticated visitor to the login page with the
// originating path preserved so they return after signing in.
func loginRedirect(c *gin.Context) {
	target := loginPath + "?redirect=" + url.QueryEscape(c.Request.URL.Path)
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

// RequireRole guards a page route: unauthenticated visitors are redirected to
// login, authenticated users with the wrong role are sent to their own
// dashboard instead of seeing a forbidden page.
func RequireRole(resolve session.StateResolver, logger *zap.Logger, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := resolve(c)
		if !st.Authenticated() {
			loginRedirect(c)
			return
		}

		for _, role := range allowedRoles {
			if st.User.Role == role {
				c.Set(common.UserIDKey, st.User.ID)
				c.Set(common.UserRoleKey, st.User.Role)
				c.Next()
				return
			}
		}

		logger.Debug("Redirecting user to their own dashboard",
			zap.String("user_id", st.User.ID),
			zap.String("role", st.User.Role),
			zap.String("path", c.Request.URL.Path),
		)
		c.Redirect(http.StatusFound, DashboardPath(st.User.Role))
		c.Abort()
	}
}

// RequireAuthenticated guards a page route that any signed-in user may view.
func RequireAuthenticated(resolve session.StateResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := resolve(c)
		if !st.Authenticated() {
			loginRedirect(c)
			return
		}
		c.Set(common.UserIDKey, st.User.ID)
		c.Set(common.UserRoleKey, st.User.Role)
		c.Next()
	}
}

// PublicOnly keeps signed-in users away from login and signup pages by
// bouncing them to their dashboard.
func PublicOnly(resolve session.StateResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := resolve(c)
		if st.Authenticated() {
			c.Redirect(http.StatusFound, DashboardPath(st.User.Role))
			c.Abort()
			return
		}
		c.Next()
	}
}
