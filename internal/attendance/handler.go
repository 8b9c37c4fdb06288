package attendance

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campuslink/attendance-backend/internal/models"
	"github.com/campuslink/attendance-backend/pkg/qr"
	"github.com/campuslink/attendance-backend/pkg/response"
)

const qrImageSize = 512

// Broadcaster pushes attendance events to connected class dashboards.
type Broadcaster interface {
	BroadcastToClass(classID, event string, payload interface{})
}

// GenerateRequest is the body for POST /generate-qr.
type GenerateRequest struct {
	ClassID string `json:"classId"`
}

// MarkRequest is the body for POST /mark-attendance.
type MarkRequest struct {
	StudentID string `json:"studentId"`
	ClassID   string `json:"classId"`
	Token     string `json:"token"`
}

// Handler exposes the token registry over HTTP.
type Handler struct {
	registry *Registry
	hub      Broadcaster
	logger   *zap.Logger
}

// NewHandler creates an attendance handler. hub may be nil when no live
// feed is wired (e.g. in tests).
func NewHandler(registry *Registry, hub Broadcaster, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{registry: registry, hub: hub, logger: logger}
}

// GenerateQR handles POST /generate-qr. Mints a token for the class.
func (h *Handler) GenerateQR(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, string(KindInvalidRequest), "invalid request body")
		return
	}
	t, err := h.registry.Issue(c.Request.Context(), req.ClassID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if h.hub != nil {
		h.hub.BroadcastToClass(t.ClassID, "token_issued", gin.H{
			"classId":   t.ClassID,
			"expiresAt": t.ExpiresAt,
		})
	}
	response.Created(c, gin.H{"token": t.Token, "expiresAt": t.ExpiresAt})
}

// MarkAttendance handles POST /mark-attendance. Redeems a token into one
// attendance record.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, string(KindInvalidRequest), "invalid request body")
		return
	}
	rec, err := h.registry.Redeem(c.Request.Context(), req.StudentID, req.ClassID, req.Token)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if h.hub != nil {
		h.hub.BroadcastToClass(rec.ClassID, "attendance_marked", rec)
	}
	response.Created(c, gin.H{
		"success": true,
		"message": "attendance marked",
		"record":  rec,
	})
}

// ListAttendance handles GET /attendance?classId=. Returns the class's
// records in insertion order, unfiltered by date.
func (h *Handler) ListAttendance(c *gin.Context) {
	list, err := h.registry.List(c.Request.Context(), c.Query("classId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if list == nil {
		list = []models.AttendanceRecord{}
	}
	response.OK(c, list)
}

// QRImage handles GET /qr/:token. Renders the token's redemption payload as
// a QR PNG for projection in class.
func (h *Handler) QRImage(c *gin.Context) {
	t, err := h.registry.store.GetToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			response.NotFound(c, string(KindTokenNotFound), ErrTokenNotFound.Message)
			return
		}
		h.writeError(c, err)
		return
	}
	if t.Expired(h.registry.now()) {
		response.BadRequest(c, string(KindTokenExpired), ErrTokenExpired.Message)
		return
	}
	payload, _ := json.Marshal(gin.H{"classId": t.ClassID, "token": t.Token})
	png, err := qr.PNG(string(payload), qrImageSize)
	if err != nil {
		h.logger.Error("qr render failed", zap.Error(err))
		response.Internal(c, "failed to render qr code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var kerr *Error
	if errors.As(err, &kerr) {
		if kerr.Kind == KindInternal {
			h.logger.Error("registry failure", zap.Error(err), zap.String("path", c.FullPath()))
			response.Internal(c, "internal error")
			return
		}
		response.BadRequest(c, string(kerr.Kind), kerr.Message)
		return
	}
	h.logger.Error("unexpected failure", zap.Error(err), zap.String("path", c.FullPath()))
	response.Internal(c, "internal error")
}
