package api

import (
	"Vitrin/internal/api/config"
	"Vitrin/internal/api/dto"
	"Vitrin/internal/api/handler"
	"Vitrin/internal/pkg/response"
	"Vitrin/internal/service"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type categoriesOnly struct {
	service.ListingService
}

func (categoriesOnly) Categories() []*dto.CategoryDTO {
	return []*dto.CategoryDTO{{Category: "pool", Kind: "project"}}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Cfg = &config.Config{}
	group := &HandlersGroup{
		ListingHandler: handler.NewListingHandler(categoriesOnly{}),
		DraftHandler:   handler.NewDraftHandler(nil),
		AdminHandler:   handler.NewAdminHandler(nil),
		ContactHandler: handler.NewContactHandler(nil),
		WsHandler:      handler.NewWsHandler(nil),
	}
	return SetupRouter(group, config.ServerConfig{AllowedOrigins: []string{"https://vitrin.example"}})
}

func TestRouterPublicAndGuardedRoutes(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	var resp dto.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != response.Ok {
		t.Fatalf("categories: %+v", resp)
	}

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/admin/drafts"},
		{http.MethodGet, "/api/admin/listings"},
		{http.MethodPost, "/api/admin/contacts/abc/read"},
		{http.MethodPost, "/api/admin/drafts/d1/media/0/cover"},
	} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: %v", route.method, route.path, err)
		}
		if resp.Code != response.Unauthorized {
			t.Errorf("%s %s must require a token, got %+v", route.method, route.path, resp)
		}
	}
}
