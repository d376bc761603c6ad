// File: internal/category/handler.go
package category

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
)

// Handler exposes category endpoints: public reads, admin writes.
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	public := rg.Group("/categories")
	{
		public.GET("", h.listCategories)
		public.GET("/:slug", h.getCategory)
	}

	admin := rg.Group("/admin/categories", authMW, adminMW)
	{
		admin.POST("", h.createCategory)
		admin.PUT("/:id", h.updateCategory)
		admin.DELETE("/:id", h.deleteCategory)
	}
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = ToCategoryResponse(&categories[i])
	}
	common.RespondOK(c, "", responses)
}

func (h *Handler) getCategory(c *gin.Context) {
	cat, err := h.service.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "", ToCategoryResponse(cat))
}

func (h *Handler) createCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindingError(c, err)
		return
	}
	cat, err := h.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Category created.", ToCategoryResponse(cat))
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid category ID."))
		return
	}
	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindingError(c, err)
		return
	}
	cat, err := h.service.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Category updated.", ToCategoryResponse(cat))
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid category ID."))
		return
	}
	if err := h.service.DeleteCategory(c.Request.Context(), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) respondBindingError(c *gin.Context, err error) {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(verrs)))
		return
	}
	common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
}
