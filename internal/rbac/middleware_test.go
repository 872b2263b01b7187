package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"acs-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func doRequest(t *testing.T, role string, allowed ...string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role != "" {
			c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), "u1", role))
		}
		c.Next()
	})
	r.GET("/x", RequireAnyRole(allowed...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole(t *testing.T) {
	cases := []struct {
		name    string
		role    string
		allowed []string
		want    int
	}{
		{"allowed role passes", RoleOperator, []string{RoleOperator, RoleAdmin}, http.StatusOK},
		{"missing role rejected", "", []string{RoleAdmin}, http.StatusUnauthorized},
		{"other role forbidden", RoleViewer, []string{RoleAdmin}, http.StatusForbidden},
		{"super_admin bypasses", RoleSuperAdmin, []string{RoleAdmin}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := doRequest(t, tc.role, tc.allowed...); got != tc.want {
				t.Fatalf("status: got %d, want %d", got, tc.want)
			}
		})
	}
}
