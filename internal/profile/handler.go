// File: internal/profile/handler.go
package profile

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/filestorage"
	"github.com/tm-webstudio/service4me-sub000/internal/shared"
)

// Handler exposes the profile endpoints.
type Handler struct {
	service *Service
	files   *filestorage.Service
	cfg     *config.Config
	logger  *zap.Logger
}

// NewHandler creates a new profile handler.
func NewHandler(service *Service, files *filestorage.Service, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{service: service, files: files, cfg: cfg, logger: logger}
}

// RegisterRoutes sets up the profile routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	group := router.Group("/profiles")
	{
		group.GET("/me", authMW, h.getMe)
		group.PATCH("/me", authMW, h.updateMe)
		group.PUT("/me/stylist", authMW, h.updateStylistDetails)
		group.POST("/me/avatar", authMW, h.uploadAvatar)
		group.GET("", authMW, adminMW, h.listProfiles)
	}
}

func (h *Handler) getMe(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	prof, err := h.service.FetchProfile(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if prof == nil {
		common.RespondWithError(c, common.ErrNotFound.WithDetails("No profile exists for this account."))
		return
	}
	common.RespondOK(c, "Profile retrieved.", ToProfileResponse(prof))
}

func (h *Handler) updateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindingError(c, err)
		return
	}

	prof, err := h.service.UpdateProfile(c.Request.Context(), common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated.", ToProfileResponse(prof))
}

func (h *Handler) updateStylistDetails(c *gin.Context) {
	var req StylistDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindingError(c, err)
		return
	}

	details := shared.StylistDetails{
		BusinessName: req.BusinessName,
		Location:     req.Location,
		Phone:        req.Phone,
		ContactEmail: req.ContactEmail,
	}
	prof, err := h.service.UpdateStylistDetails(c.Request.Context(), common.GetUserIDFromContext(c), details)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Stylist profile updated.", ToProfileResponse(prof))
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("An 'avatar' file field is required."))
		return
	}

	relPath, err := h.files.SaveUploadedFile(fileHeader, "avatars")
	if err != nil {
		h.logger.Warn("Avatar upload failed", zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	url := fmt.Sprintf("%s/uploads/%s", h.cfg.PublicBaseURL, relPath)
	prof, err := h.service.SetAvatarURL(c.Request.Context(), common.GetUserIDFromContext(c), url)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Avatar uploaded.", ToProfileResponse(prof))
}

func (h *Handler) listProfiles(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)
	rows, pagination, err := h.service.ListProfiles(c.Request.Context(), page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Profiles retrieved.", rows, pagination)
}

func (h *Handler) respondBindingError(c *gin.Context, err error) {
	h.logger.Warn("Invalid request body", zap.Error(err))
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
		return
	}
	common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
}
