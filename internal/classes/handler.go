package classes

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuslink/attendance-backend/internal/middleware"
	"github.com/campuslink/attendance-backend/internal/models"
	"github.com/campuslink/attendance-backend/pkg/response"
)

// CreateRequest is the body for POST /classes.
type CreateRequest struct {
	Code  string `json:"code" binding:"required"`
	Title string `json:"title" binding:"required"`
}

// Handler handles class directory endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a classes handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /classes.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "INVALID_REQUEST", "invalid request: "+err.Error())
		return
	}
	cl := &models.Class{
		Code:  strings.ToUpper(strings.TrimSpace(req.Code)),
		Title: strings.TrimSpace(req.Title),
	}
	if v, ok := c.Get(middleware.ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			cl.CreatedBy = &id
		}
	}
	if err := h.repo.Create(c.Request.Context(), cl); err != nil {
		h.logger.Error("create class failed", zap.Error(err), zap.String("code", cl.Code))
		response.Internal(c, "failed to create class")
		return
	}
	response.Created(c, cl)
}

// Get handles GET /classes/:code.
func (h *Handler) Get(c *gin.Context) {
	cl, err := h.repo.GetByCode(c.Request.Context(), strings.ToUpper(c.Param("code")))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "CLASS_NOT_FOUND", "class not found")
			return
		}
		response.Internal(c, "failed to load class")
		return
	}
	response.OK(c, cl)
}

// List handles GET /classes.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list classes")
		return
	}
	if list == nil {
		list = []models.Class{}
	}
	response.OK(c, list)
}
