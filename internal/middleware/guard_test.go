// File: internal/middleware/guard_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
	"github.com/tm-webstudio/service4me-sub000/internal/session"
	"github.com/tm-webstudio/service4me-sub000/internal/shared"
)

func resolveAs(st session.State) session.StateResolver {
	return func(c *gin.Context) session.State { return st }
}

func authenticatedAs(id, role string) session.State {
	return session.State{
		Status: session.StatusAuthenticated,
		User:   &shared.Profile{ID: id, Role: role},
	}
}

func performGuarded(t *testing.T, guard gin.HandlerFunc, path string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET(path, guard, func(c *gin.Context) {
		c.String(http.StatusOK, "page")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestDashboardPath(t *testing.T) {
	assert.Equal(t, "/admin", DashboardPath(common.RoleAdmin))
	assert.Equal(t, "/dashboard/stylist", DashboardPath(common.RoleStylist))
	assert.Equal(t, "/dashboard/client", DashboardPath(common.RoleClient))
	assert.Equal(t, "/dashboard/client", DashboardPath("made-up-role"))
	assert.Equal(t, "/dashboard/client", DashboardPath(""))
}

func TestRequireRole_UnauthenticatedRedirectsToLogin(t *testing.T) {
	guard := RequireRole(resolveAs(session.State{Status: session.StatusUnauthenticated}), zap.NewNop(), common.RoleStylist)
	w := performGuarded(t, guard, "/dashboard/stylist")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?redirect=%2Fdashboard%2Fstylist", w.Header().Get("Location"))
}

func TestRequireRole_AllowedRolePasses(t *testing.T) {
	guard := RequireRole(resolveAs(authenticatedAs("uid-1", common.RoleStylist)), zap.NewNop(), common.RoleStylist)
	w := performGuarded(t, guard, "/dashboard/stylist")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "page", w.Body.String())
}

func TestRequireRole_WrongRoleGoesToOwnDashboard(t *testing.T) {
	guard := RequireRole(resolveAs(authenticatedAs("uid-1", common.RoleClient)), zap.NewNop(), common.RoleStylist)
	w := performGuarded(t, guard, "/dashboard/stylist")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard/client", w.Header().Get("Location"))
}

func TestRequireRole_AdminAllowedOnAdminPage(t *testing.T) {
	guard := RequireRole(resolveAs(authenticatedAs("uid-1", common.RoleAdmin)), zap.NewNop(), common.RoleAdmin)
	w := performGuarded(t, guard, "/admin")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_ErrorStateRedirectsToLogin(t *testing.T) {
	st := session.State{Status: session.StatusError}
	guard := RequireRole(resolveAs(st), zap.NewNop(), common.RoleClient)
	w := performGuarded(t, guard, "/account")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?redirect=%2Faccount", w.Header().Get("Location"))
}

func TestRequireAuthenticated(t *testing.T) {
	w := performGuarded(t, RequireAuthenticated(resolveAs(authenticatedAs("uid-1", common.RoleClient))), "/account")
	assert.Equal(t, http.StatusOK, w.Code)

	w = performGuarded(t, RequireAuthenticated(resolveAs(session.State{Status: session.StatusUnauthenticated})), "/account")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?redirect=%2Faccount", w.Header().Get("Location"))
}

func TestPublicOnly_BouncesAuthenticatedUsers(t *testing.T) {
	w := performGuarded(t, PublicOnly(resolveAs(authenticatedAs("uid-1", common.RoleStylist))), "/login")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard/stylist", w.Header().Get("Location"))

	w = performGuarded(t, PublicOnly(resolveAs(session.State{Status: session.StatusUnauthenticated})), "/login")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_SetsIdentityContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	guard := RequireRole(resolveAs(authenticatedAs("uid-7", common.RoleClient)), zap.NewNop(), common.RoleClient)

	var gotID, gotRole string
	router.GET("/account", guard, func(c *gin.Context) {
		gotID = c.GetString(common.UserIDKey)
		gotRole = c.GetString(common.UserRoleKey)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "uid-7", gotID)
	assert.Equal(t, common.RoleClient, gotRole)
}
