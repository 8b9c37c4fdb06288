package exports

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuslink/attendance-backend/internal/middleware"
	"github.com/campuslink/attendance-backend/internal/models"
	"github.com/campuslink/attendance-backend/pkg/queue"
	"github.com/campuslink/attendance-backend/pkg/response"
	"github.com/campuslink/attendance-backend/pkg/storage"
)

// CreateRequest is the body for POST /attendance/export.
type CreateRequest struct {
	ClassID string `json:"classId" binding:"required"`
}

// Handler handles export HTTP endpoints.
type Handler struct {
	repo   *Repository
	queue  *queue.Queue
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an exports handler. s3 may be nil when archival is not
// configured; download URLs are then unavailable.
func NewHandler(repo *Repository, q *queue.Queue, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, queue: q, s3: s3, logger: logger}
}

// Create handles POST /attendance/export. Records the request and enqueues
// the background job that builds and archives the CSV.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "INVALID_REQUEST", "classId is required")
		return
	}
	e := &models.AttendanceExport{ClassID: strings.TrimSpace(req.ClassID)}
	if v, ok := c.Get(middleware.ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			e.RequestedBy = &id
		}
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create export failed", zap.Error(err), zap.String("class_id", e.ClassID))
		response.Internal(c, "failed to create export")
		return
	}
	if err := h.queue.EnqueueExport(c.Request.Context(), queue.ExportPayload{ExportID: e.ID, ClassID: e.ClassID}); err != nil {
		h.logger.Error("enqueue export failed", zap.Error(err), zap.String("export_id", e.ID.String()))
		response.Internal(c, "failed to enqueue export")
		return
	}
	response.Created(c, e)
}

// List handles GET /exports?classId=.
func (h *Handler) List(c *gin.Context) {
	classID := strings.TrimSpace(c.Query("classId"))
	if classID == "" {
		response.BadRequest(c, "INVALID_REQUEST", "classId is required")
		return
	}
	list, err := h.repo.ListByClass(c.Request.Context(), classID)
	if err != nil {
		response.Internal(c, "failed to list exports")
		return
	}
	if list == nil {
		list = []models.AttendanceExport{}
	}
	response.OK(c, list)
}

// DownloadURL handles GET /exports/:id/download-url. Returns a pre-signed
// S3 URL for a completed export.
func (h *Handler) DownloadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "INVALID_REQUEST", "invalid export id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "EXPORT_NOT_FOUND", "export not found")
			return
		}
		response.Internal(c, "failed to load export")
		return
	}
	if e.Status != models.ExportStatusCompleted || e.S3Key == "" {
		response.Conflict(c, "EXPORT_NOT_READY", "export is not completed")
		return
	}
	if h.s3 == nil {
		response.Internal(c, "report archive is not configured")
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), e.S3Key, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign download failed", zap.Error(err), zap.String("export_id", e.ID.String()))
		response.Internal(c, "failed to generate download url")
		return
	}
	response.OK(c, gin.H{"download_url": url, "expires_in_minutes": int(h.s3.PresignExpire().Minutes())})
}
