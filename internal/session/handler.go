// File: internal/session/handler.go
package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/profile"
)

// SignInRequest is the payload for POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignUpRequest is the payload for POST /auth/signup. Stylist fields are
// ignored unless role is "stylist".
type SignUpRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	Role          string `json:"role" binding:"omitempty,oneof=client stylist"`
	DisplayName   string `json:"display_name" binding:"omitempty,max=120"`
	Phone         string `json:"phone" binding:"omitempty,max=32"`
	BusinessName  string `json:"business_name" binding:"omitempty,max=160"`
	Location      string `json:"location" binding:"omitempty,max=160"`
	BusinessPhone string `json:"business_phone" binding:"omitempty,max=32"`
	ContactEmail  string `json:"contact_email" binding:"omitempty,email"`
}

// SessionInfo is the client-safe view of a provider session. Tokens never
// leave the server.
type SessionInfo struct {
	UserID              string     `json:"user_id"`
	Email               string     `json:"email"`
	ExpiresAt           time.Time  `json:"expires_at"`
	ConfirmationPending bool       `json:"confirmation_pending"`
	EmailConfirmedAt    *time.Time `json:"email_confirmed_at,omitempty"`
}

// StateResponse is the snapshot returned by every auth endpoint.
type StateResponse struct {
	Status  Status                   `json:"status"`
	User    *profile.ProfileResponse `json:"user,omitempty"`
	Session *SessionInfo             `json:"session,omitempty"`
	Error   *AuthError               `json:"error,omitempty"`
}

func toStateResponse(st State) StateResponse {
	resp := StateResponse{Status: st.Status, Error: st.Err}
	if st.User != nil {
		u := profile.ToProfileResponse(st.User)
		resp.User = &u
	}
	if st.Session != nil {
		resp.Session = &SessionInfo{
			UserID:              st.Session.UserID,
			Email:               st.Session.Email,
			ExpiresAt:           st.Session.ExpiresAt,
			ConfirmationPending: st.Session.ConfirmationPending(),
			EmailConfirmedAt:    st.Session.EmailConfirmedAt,
		}
	}
	return resp
}

// httpStatusFor maps an auth error code onto the HTTP status the endpoint
// responds with.
func httpStatusFor(code Code) int {
	switch code {
	case CodeInvalidCredentials, CodeSessionExpired:
		return http.StatusUnauthorized
	case CodeEmailAlreadyExists:
		return http.StatusConflict
	case CodeWeakPassword:
		return http.StatusUnprocessableEntity
	case CodeConfigMissing:
		return http.StatusServiceUnavailable
	case CodeNetworkError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Handler exposes the session lifecycle over /api/v1/auth. Each browser gets
// a server-side Manager, resolved through the signed session cookie.
type Handler struct {
	registry *Registry
	tokens   *TokenService
	cfg      *config.Config
	logger   *zap.Logger
}

func NewHandler(registry *Registry, tokens *TokenService, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{registry: registry, tokens: tokens, cfg: cfg, logger: logger}
}

// RegisterRoutes mounts the auth endpoints on a versioned router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.GET("/session", h.getSession)
		auth.POST("/signup", h.signUp)
		auth.POST("/signin", h.signIn)
		auth.POST("/signout", h.signOut)
		auth.POST("/refresh-profile", h.refreshProfile)
		auth.POST("/retry", h.retry)
		auth.POST("/clear-error", h.clearError)
	}
}

// resolveManager finds the manager behind the request's session cookie,
// creating a new session (and setting a fresh cookie) when absent or expired.
func (h *Handler) resolveManager(c *gin.Context) (*Manager, error) {
	sid := ""
	if raw, err := c.Cookie(h.cfg.SessionCookieName); err == nil && raw != "" {
		parsed, parseErr := h.tokens.Parse(raw)
		if parseErr != nil {
			h.logger.Debug("Rejecting session cookie", zap.Error(parseErr))
		} else {
			sid = parsed
		}
	}

	resolved, mgr, err := h.registry.GetOrCreate(c.Request.Context(), sid)
	if err != nil {
		return nil, err
	}
	if resolved != sid {
		if err := h.setCookie(c, resolved); err != nil {
			return nil, err
		}
	}
	return mgr, nil
}

func (h *Handler) setCookie(c *gin.Context, sid string) error {
	signed, _, err := h.tokens.Mint(sid)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookieName, signed, int(h.tokens.TTL().Seconds()), "/", "", h.cfg.SessionCookieSecure, true)
	return nil
}

func (h *Handler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookieName, "", -1, "/", "", h.cfg.SessionCookieSecure, true)
}

func (h *Handler) respondState(c *gin.Context, mgr *Manager) {
	common.RespondOK(c, "", toStateResponse(mgr.Snapshot()))
}

func (h *Handler) respondAuthError(c *gin.Context, ae *AuthError) {
	c.AbortWithStatusJSON(httpStatusFor(ae.Code), gin.H{
		"status": "error",
		"error":  ae,
	})
}

func (h *Handler) getSession(c *gin.Context) {
	mgr, err := h.resolveManager(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.respondState(c, mgr)
}

func (h *Handler) signIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindingError(c, err)
		return
	}
	mgr, err := h.resolveManager(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if ae := mgr.SignIn(c.Request.Context(), req.Email, req.Password); ae != nil {
		h.respondAuthError(c, ae)
		return
	}
	h.respondState(c, mgr)
}

func (h *Handler) signUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindingError(c, err)
		return
	}
	mgr, err := h.resolveManager(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	details := &SignUpDetails{
		DisplayName:   req.DisplayName,
		Phone:         req.Phone,
		BusinessName:  req.BusinessName,
		Location:      req.Location,
		BusinessPhone: req.BusinessPhone,
		ContactEmail:  req.ContactEmail,
	}
	if ae := mgr.SignUp(c.Request.Context(), req.Email, req.Password, req.Role, details); ae != nil {
		h.respondAuthError(c, ae)
		return
	}

	st := mgr.Snapshot()
	if st.Status == StatusUnauthenticated {
		common.RespondCreated(c, "Account created. Check your email to confirm your address before signing in.", toStateResponse(st))
		return
	}
	common.RespondCreated(c, "Account created.", toStateResponse(st))
}

func (h *Handler) signOut(c *gin.Context) {
	if raw, err := c.Cookie(h.cfg.SessionCookieName); err == nil && raw != "" {
		if sid, parseErr := h.tokens.Parse(raw); parseErr == nil {
			if mgr, ok := h.registry.Get(sid); ok {
				mgr.SignOut(c.Request.Context())
			}
			h.registry.Delete(sid)
		}
	}
	h.clearCookie(c)
	common.RespondOK(c, "Signed out.", StateResponse{Status: StatusUnauthenticated})
}

func (h *Handler) refreshProfile(c *gin.Context) {
	mgr, err := h.resolveManager(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if ae := mgr.RefreshProfile(c.Request.Context()); ae != nil {
		h.respondAuthError(c, ae)
		return
	}
	h.respondState(c, mgr)
}

func (h *Handler) retry(c *gin.Context) {
	mgr, err := h.resolveManager(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if ae := mgr.Retry(c.Request.Context()); ae != nil {
		h.respondAuthError(c, ae)
		return
	}
	h.respondState(c, mgr)
}

func (h *Handler) clearError(c *gin.Context) {
	mgr, err := h.resolveManager(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	mgr.ClearError()
	h.respondState(c, mgr)
}

func (h *Handler) respondBindingError(c *gin.Context, err error) {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(verrs)))
		return
	}
	common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
}
