// File: internal/listing/handler.go
package listing

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/filestorage"
)

const maxPortfolioImages = 10

// Handler wires listing endpoints: public search and read, stylist-only
// writes, admin approval.
type Handler struct {
	service Service
	files   *filestorage.Service
	cfg     *config.Config
	logger  *zap.Logger
}

func NewHandler(service Service, files *filestorage.Service, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{service: service, files: files, cfg: cfg, logger: logger}
}

// RegisterRoutes mounts listing routes. authMW must populate the user context
// keys; stylistMW and adminMW restrict by role.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, stylistMW, adminMW gin.HandlerFunc) {
	public := rg.Group("/listings")
	{
		public.GET("", h.searchListings)
		public.GET("/:id", h.getListing)
		public.GET("/slug/:slug", h.getListingBySlug)
	}

	stylist := rg.Group("/listings", authMW, stylistMW)
	{
		stylist.POST("", h.createListing)
		stylist.GET("/mine", h.myListings)
		stylist.PATCH("/:id", h.updateListing)
		stylist.POST("/:id/images", h.uploadImages)
	}

	admin := rg.Group("/admin/listings", authMW, adminMW)
	{
		admin.GET("", h.adminSearchListings)
		admin.PUT("/:id/approval", h.adminSetApproval)
	}
}

func (h *Handler) imageBaseURL() string {
	return h.cfg.PublicBaseURL + "/uploads"
}

func (h *Handler) searchListings(c *gin.Context) {
	var query ListingSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.respondBindingError(c, err)
		return
	}

	listings, pagination, err := h.service.SearchListings(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	authenticated := common.GetUserIDFromContext(c) != ""
	responses := make([]ListingResponse, len(listings))
	for i := range listings {
		responses[i] = ToListingResponse(&listings[i], authenticated, h.imageBaseURL())
	}
	common.RespondPaginated(c, "", responses, pagination)
}

func (h *Handler) getListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID."))
		return
	}

	viewerID := common.GetUserIDFromContext(c)
	l, err := h.service.GetListingByID(c.Request.Context(), id, viewerID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "", ToListingResponse(l, viewerID != "", h.imageBaseURL()))
}

func (h *Handler) getListingBySlug(c *gin.Context) {
	viewerID := common.GetUserIDFromContext(c)
	l, err := h.service.GetListingBySlug(c.Request.Context(), c.Param("slug"), viewerID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "", ToListingResponse(l, viewerID != "", h.imageBaseURL()))
}

func (h *Handler) createListing(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindingError(c, err)
		return
	}

	stylistID := common.GetUserIDFromContext(c)
	l, err := h.service.CreateListing(c.Request.Context(), stylistID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Listing created. It will appear in search once approved.", ToListingResponse(l, true, h.imageBaseURL()))
}

func (h *Handler) myListings(c *gin.Context) {
	stylistID := common.GetUserIDFromContext(c)
	listings, err := h.service.GetStylistListings(c.Request.Context(), stylistID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	responses := make([]ListingResponse, len(listings))
	for i := range listings {
		responses[i] = ToListingResponse(&listings[i], true, h.imageBaseURL())
	}
	common.RespondOK(c, "", responses)
}

func (h *Handler) updateListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID."))
		return
	}
	var req UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindingError(c, err)
		return
	}

	stylistID := common.GetUserIDFromContext(c)
	l, err := h.service.UpdateListing(c.Request.Context(), id, stylistID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Listing updated.", ToListingResponse(l, true, h.imageBaseURL()))
}

func (h *Handler) uploadImages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID."))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Expected multipart form data."))
		return
	}
	fileHeaders := form.File["images"]
	if len(fileHeaders) == 0 {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("At least one image file is required."))
		return
	}
	if len(fileHeaders) > maxPortfolioImages {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Too many images in one upload."))
		return
	}

	paths := make([]string, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		relPath, saveErr := h.files.SaveUploadedFile(fh, "portfolio")
		if saveErr != nil {
			h.logger.Error("Failed to save portfolio image", zap.Error(saveErr))
			common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not save uploaded image."))
			return
		}
		paths = append(paths, relPath)
	}

	stylistID := common.GetUserIDFromContext(c)
	l, err := h.service.AddImages(c.Request.Context(), id, stylistID, paths)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Images uploaded.", ToListingResponse(l, true, h.imageBaseURL()))
}

func (h *Handler) adminSearchListings(c *gin.Context) {
	var query ListingSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.respondBindingError(c, err)
		return
	}

	listings, pagination, err := h.service.AdminSearchListings(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	responses := make([]ListingResponse, len(listings))
	for i := range listings {
		responses[i] = ToListingResponse(&listings[i], true, h.imageBaseURL())
	}
	common.RespondPaginated(c, "", responses, pagination)
}

func (h *Handler) adminSetApproval(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID."))
		return
	}
	var req AdminApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindingError(c, err)
		return
	}

	l, err := h.service.AdminSetApproval(c.Request.Context(), id, req.Approved)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Listing approval updated.", ToListingResponse(l, true, h.imageBaseURL()))
}

func (h *Handler) respondBindingError(c *gin.Context, err error) {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(verrs)))
		return
	}
	common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
}
