// File: internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
	"github.com/tm-webstudio/service4me-sub000/internal/firebase"
	"github.com/tm-webstudio/service4me-sub000/internal/shared"
)

// AuthMiddleware authenticates API requests carrying a provider ID token in
// the Authorization header. The token is verified against the auth provider
// and the backing profile row is loaded so downstream handlers see a
// consistent identity even when the provider's claims lag behind.
func AuthMiddleware(fb *firebase.Service, profiles shared.ProfileService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(common.AuthorizationHeader)
		if authHeader == "" {
			logger.Debug("Authorization header missing")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header is required."))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], common.AuthorizationTypeBearer) {
			logger.Debug("Authorization header format invalid")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		token, err := fb.VerifyIDToken(c.Request.Context(), parts[1])
		if err != nil {
			logger.Warn("ID token verification failed", zap.Error(err))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired token."))
			return
		}

		prof, err := profiles.FetchProfile(c.Request.Context(), token.UID)
		if err != nil {
			logger.Error("Profile lookup during authentication failed",
				zap.String("user_id", token.UID), zap.Error(err))
			common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not load your account."))
			return
		}

		email := claimString(token.Claims, "email")
		role := claimString(token.Claims, "role")
		if prof == nil {
			// First API call for a user whose profile row was never written
			// (e.g. confirmed email out-of-band). Create it from token claims.
			prof, err = profiles.CreateFromAuthMetadata(c.Request.Context(), token.UID, email, role, nil)
			if err != nil {
				logger.Error("Profile creation during authentication failed",
					zap.String("user_id", token.UID), zap.Error(err))
				common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not set up your account."))
				return
			}
		}

		c.Set(common.UserIDKey, prof.ID)
		c.Set(common.UserEmailKey, prof.Email)
		c.Set(common.UserRoleKey, prof.Role)

		logger.Debug("User authenticated",
			zap.String("user_id", prof.ID),
			zap.String("role", prof.Role),
		)
		c.Next()
	}
}

func claimString(claims map[string]interface{}, key string) string {
	if claims == nil {
		return ""
	}
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// RoleAuthMiddleware restricts an API route to the given roles. It must run
// after AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := common.GetUserRoleFromContext(c)
		if userRole == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("User role not found in context."))
			return
		}

		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}
