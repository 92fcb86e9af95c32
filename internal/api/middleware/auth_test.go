package middleware

import (
	"Vitrin/internal/api/config"
	"Vitrin/internal/api/dto"
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/redis"
	"Vitrin/internal/pkg/response"
	"Vitrin/internal/pkg/security"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
)

func setup(t *testing.T) (*miniredis.Miniredis, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	redis.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redis.Rdb.Close() })
	if err := security.InitJWT(config.JWTConfig{Secret: "middleware-test", ExpireHours: 1}); err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.Use(TraceMiddleware())
	admin := r.Group("/admin", AuthMiddleware(), CheckRoles(consts.RoleAdmin))
	admin.GET("/me", func(c *gin.Context) {
		response.Success(c, c.GetUint64("admin_id"))
	})
	return mr, r
}

func call(t *testing.T, r *gin.Engine, req *http.Request) (dto.Response, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp dto.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return resp, w
}

func TestAuthMiddleware(t *testing.T) {
	mr, r := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	if resp, w := call(t, r, req); resp.Code != response.Unauthorized || w.Header().Get("X-Trace-ID") == "" {
		t.Fatalf("missing token: %+v", resp)
	}

	token, _ := security.GenerateToken(9, []string{consts.RoleAdmin})
	req = httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if resp, _ := call(t, r, req); resp.Code != response.Ok || resp.Data != float64(9) {
		t.Fatalf("valid token: %+v", resp)
	}

	sig, _ := security.ExtractSignature(token)
	if err := mr.Set(consts.TokenBlacklistKey+sig, "1"); err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if resp, _ := call(t, r, req); resp.Code != response.Unauthorized {
		t.Fatalf("revoked token: %+v", resp)
	}
}

func TestCheckRolesForbidsOtherRoles(t *testing.T) {
	_, r := setup(t)
	token, _ := security.GenerateToken(3, []string{consts.RoleEditor})
	req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if resp, _ := call(t, r, req); resp.Code != response.Forbidden {
		t.Fatalf("expected forbidden, got %+v", resp)
	}
}

func TestWebsocketTokenFromQuery(t *testing.T) {
	_, r := setup(t)
	token, _ := security.GenerateToken(4, []string{consts.RoleAdmin})

	req := httptest.NewRequest(http.MethodGet, "/admin/me?token="+token, nil)
	if resp, _ := call(t, r, req); resp.Code != response.Unauthorized {
		t.Fatalf("query token outside websocket upgrade must be ignored, got %+v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/me?token="+token, nil)
	req.Header.Set("Upgrade", "websocket")
	if resp, _ := call(t, r, req); resp.Code != response.Ok {
		t.Fatalf("upgrade request with query token: %+v", resp)
	}
}

func TestCORSOnlyEchoesAllowedOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://vitrin.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for origin, want := range map[string]string{
		"https://vitrin.example": "https://vitrin.example",
		"https://evil.example":   "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Errorf("origin %s: got %q", origin, got)
		}
	}

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", w.Code)
	}
}
