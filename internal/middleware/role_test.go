package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRoleRouter(setRole string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x",
		func(c *gin.Context) {
			if setRole != "" {
				c.Set(ContextUserRole, setRole)
			}
			c.Next()
		},
		RequireRole("teacher", "admin"),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	return router
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		role string
		want int
	}{
		{"teacher", http.StatusOK},
		{"admin", http.StatusOK},
		{"student", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		newRoleRouter(tc.role).ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("role %q: expected %d, got %d", tc.role, tc.want, w.Code)
		}
	}
}
