package attendance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/attendance-backend/internal/models"
	"github.com/campuslink/attendance-backend/pkg/response"
)

type recordedEvent struct {
	ClassID string
	Event   string
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeBroadcaster) BroadcastToClass(classID, event string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{ClassID: classID, Event: event})
}

func newTestServer(start time.Time) (*gin.Engine, *time.Time, *fakeBroadcaster) {
	gin.SetMode(gin.TestMode)
	now := start
	reg := NewRegistry(NewMemoryStore(), 10*time.Minute, time.UTC, WithClock(func() time.Time { return now }))
	hub := &fakeBroadcaster{}
	h := NewHandler(reg, hub, nil)

	router := gin.New()
	router.POST("/generate-qr", h.GenerateQR)
	router.POST("/mark-attendance", h.MarkAttendance)
	router.GET("/attendance", h.ListAttendance)
	router.GET("/qr/:token", h.QRImage)
	return router, &now, hub
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateQRContract(t *testing.T) {
	router, _, hub := newTestServer(time.Now())

	w := doJSON(t, router, http.MethodPost, "/generate-qr", `{"classId":"CMPT120"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	assert.False(t, body.ExpiresAt.IsZero())

	require.Len(t, hub.events, 1)
	assert.Equal(t, "token_issued", hub.events[0].Event)
	assert.Equal(t, "CMPT120", hub.events[0].ClassID)
}

func TestGenerateQRMissingClassID(t *testing.T) {
	router, _, _ := newTestServer(time.Now())

	w := doJSON(t, router, http.MethodPost, "/generate-qr", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_REQUEST", body.Code)
	assert.NotEmpty(t, body.Error)
}

// The end-to-end scenario: issue, redeem, duplicate rejection, second
// student on the same token, listing.
func TestAttendanceScenario(t *testing.T) {
	router, _, hub := newTestServer(time.Now())

	w := doJSON(t, router, http.MethodPost, "/generate-qr", `{"classId":"CMPT120"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var issued struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issued))

	// S1 marks attendance
	w = doJSON(t, router, http.MethodPost, "/mark-attendance",
		`{"studentId":"S1","classId":"CMPT120","token":"`+issued.Token+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var marked struct {
		Success bool                    `json:"success"`
		Message string                  `json:"message"`
		Record  models.AttendanceRecord `json:"record"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &marked))
	assert.True(t, marked.Success)
	assert.Equal(t, "S1", marked.Record.StudentID)
	assert.Equal(t, "present", marked.Record.Status)

	// S1 again: rejected
	w = doJSON(t, router, http.MethodPost, "/mark-attendance",
		`{"studentId":"S1","classId":"CMPT120","token":"`+issued.Token+`"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var errBody response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.Equal(t, "ALREADY_MARKED", errBody.Code)

	// S2 on the same token: accepted
	w = doJSON(t, router, http.MethodPost, "/mark-attendance",
		`{"studentId":"S2","classId":"CMPT120","token":"`+issued.Token+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// listing returns both, in order
	w = doJSON(t, router, http.MethodGet, "/attendance?classId=CMPT120", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.AttendanceRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "S1", list[0].StudentID)
	assert.Equal(t, "S2", list[1].StudentID)

	// token_issued + two attendance_marked events on the live feed
	require.Len(t, hub.events, 3)
	assert.Equal(t, "attendance_marked", hub.events[1].Event)
	assert.Equal(t, "attendance_marked", hub.events[2].Event)
}

func TestMarkAttendanceErrorCodes(t *testing.T) {
	start := time.Now()
	router, now, _ := newTestServer(start)

	w := doJSON(t, router, http.MethodPost, "/generate-qr", `{"classId":"A"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var issued struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issued))

	cases := []struct {
		name string
		body string
		code string
	}{
		{"missing fields", `{"studentId":"S1"}`, "INVALID_REQUEST"},
		{"unknown token", `{"studentId":"S1","classId":"A","token":"bogus"}`, "TOKEN_NOT_FOUND"},
		{"class mismatch", `{"studentId":"S1","classId":"B","token":"` + issued.Token + `"}`, "CLASS_MISMATCH"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/mark-attendance", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			var body response.ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
		})
	}

	// expired token
	*now = start.Add(11 * time.Minute)
	w = doJSON(t, router, http.MethodPost, "/mark-attendance",
		`{"studentId":"S1","classId":"A","token":"`+issued.Token+`"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TOKEN_EXPIRED", body.Code)
}

func TestListAttendanceRequiresClassID(t *testing.T) {
	router, _, _ := newTestServer(time.Now())

	w := doJSON(t, router, http.MethodGet, "/attendance", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_REQUEST", body.Code)
}

func TestListAttendanceEmptyClassIsArray(t *testing.T) {
	router, _, _ := newTestServer(time.Now())

	w := doJSON(t, router, http.MethodGet, "/attendance?classId=EMPTY", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestQRImage(t *testing.T) {
	start := time.Now()
	router, now, _ := newTestServer(start)

	w := doJSON(t, router, http.MethodPost, "/generate-qr", `{"classId":"CMPT120"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var issued struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issued))

	w = doJSON(t, router, http.MethodGet, "/qr/"+issued.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())

	// unknown token
	w = doJSON(t, router, http.MethodGet, "/qr/bogus", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// expired token
	*now = start.Add(11 * time.Minute)
	w = doJSON(t, router, http.MethodGet, "/qr/"+issued.Token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
