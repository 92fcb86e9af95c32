package response

import (
	"Vitrin/internal/api/dto"
	"Vitrin/internal/editor"
	"Vitrin/internal/service"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func errorResponse(t *testing.T, err error) dto.Response {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Error(c, err)
	if w.Code != http.StatusOK {
		t.Fatalf("http status %d", w.Code)
	}
	var resp dto.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestErrorMapsBusinessCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrListingNotFound, NotFound},
		{fmt.Errorf("load: %w", service.ErrDraftNotFound), NotFound},
		{service.ErrDraftBusy, Conflict},
		{&editor.ValidationError{Fields: []string{"title"}}, BadRequest},
		{&editor.CapacityError{Kind: editor.MediaVideo, Limit: 2, Have: 2, Adding: 1}, BadRequest},
		{editor.ErrVideoCover, BadRequest},
		{editor.ErrSubmitting, Conflict},
		{&editor.UploadError{Name: "a.jpg", Err: errors.New("boom")}, InternalServerError},
		{&editor.PersistError{Err: errors.New("db down")}, InternalServerError},
		{service.ErrPasswordIncorrect, Unauthorized},
	}
	for _, c := range cases {
		resp := errorResponse(t, c.err)
		if resp.Code != c.code {
			t.Errorf("%v: code %d want %d", c.err, resp.Code, c.code)
		}
		if resp.Message != c.err.Error() {
			t.Errorf("%v: message %q", c.err, resp.Message)
		}
	}
}

func TestUnknownErrorIsHidden(t *testing.T) {
	resp := errorResponse(t, errors.New("dial tcp 10.0.0.3:3306: refused"))
	if resp.Code != InternalServerError || resp.Message != service.UnExpectedError.Error() {
		t.Fatalf("got %+v", resp)
	}
}

func TestMalformedJSON(t *testing.T) {
	var v struct{ N int }
	err := json.Unmarshal([]byte(`{"N":"x"}`), &v)
	if resp := errorResponse(t, err); resp.Code != BadRequest {
		t.Fatalf("got %+v", resp)
	}
}
