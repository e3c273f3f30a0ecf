package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/utils"
	"github.com/gin-gonic/gin"
)

func protectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/pos/ping", RequireUser(), func(c *gin.Context) {
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": userId})
	})
	return r
}

func TestRequireUser_RejectsTokenlessRequest(t *testing.T) {
	r := protectedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pos/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("tokenless request got %d, want 401", w.Code)
	}
}

func TestRequireUser_AcceptsValidToken(t *testing.T) {
	r := protectedRouter()

	token, err := utils.JwtGenerate(42, 1, "C")
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pos/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("authenticated request got %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_RejectsGarbageToken(t *testing.T) {
	r := protectedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pos/ping", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token got %d, want 401", w.Code)
	}
}
