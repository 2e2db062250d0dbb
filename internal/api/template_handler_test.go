package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"resumeforge/internal/database"
	"resumeforge/internal/tasks"
	"resumeforge/internal/template"
)

func newTemplateHandlerForTest(t *testing.T) (*TemplateHandler, *fakeEnqueuer) {
	t.Helper()
	db := newTestDB(t)
	enqueuer := &fakeEnqueuer{}
	return NewTemplateHandler(db, enqueuer, &fakeObjectStorage{}, nil), enqueuer
}

func rawJSONRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestListTemplatesIncludesBuiltins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTemplateHandlerForTest(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/templates", nil)

	h.ListTemplates(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Templates  []templateListItem `json:"templates"`
		Categories []string           `json:"categories"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Templates) < len(template.Builtin()) {
		t.Fatalf("expected at least %d templates got %d", len(template.Builtin()), len(resp.Templates))
	}
	if len(resp.Categories) != len(template.Categories()) {
		t.Fatalf("expected %d categories got %d", len(template.Categories()), len(resp.Categories))
	}
}

func TestCreateTemplateStoresDefinitionAndEnqueuesPreview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, enqueuer := newTemplateHandlerForTest(t)

	definition := []byte(`{
		"id": "midnight-grid",
		"name": "Midnight Grid",
		"category": "technical",
		"layout": "two",
		"palette": {"primary": "#111", "secondary": "#222", "accent": "#0af", "text": "#111", "background": "#fff"},
		"fonts": {"heading": "Inter", "body": "Inter"},
		"capabilities": {"print": true, "mobile": true, "chat_app": false}
	}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = rawJSONRequest(http.MethodPost, "/v1/admin/templates", definition)

	h.CreateTemplate(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var row database.Template
	if err := h.db.Where("template_id = ?", "midnight-grid").First(&row).Error; err != nil {
		t.Fatalf("load stored template: %v", err)
	}
	if row.Category != "technical" {
		t.Fatalf("expected technical category got %q", row.Category)
	}

	if len(enqueuer.enqueued) != 1 {
		t.Fatalf("expected 1 preview task got %d", len(enqueuer.enqueued))
	}
	if got := enqueuer.enqueued[0].Type(); got != tasks.TypeTemplatePreview {
		t.Fatalf("expected task type %q got %q", tasks.TypeTemplatePreview, got)
	}

	catalog, err := loadCatalog(c.Request.Context(), h.db, h.logger)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if _, ok := catalog.Find("midnight-grid"); !ok {
		t.Fatal("custom template missing from catalog")
	}
}

func TestCreateTemplateRejectsBuiltinCollision(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, enqueuer := newTemplateHandlerForTest(t)

	tpl := template.Builtin()[0]
	definition, err := template.EncodeDefinition(tpl)
	if err != nil {
		t.Fatalf("encode builtin: %v", err)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = rawJSONRequest(http.MethodPost, "/v1/admin/templates", definition)

	h.CreateTemplate(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
	if len(enqueuer.enqueued) != 0 {
		t.Fatal("no preview task should be enqueued on rejection")
	}
}

func TestCreateTemplateRejectsUnknownCategory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTemplateHandlerForTest(t)

	definition := []byte(`{"id": "weird", "name": "Weird", "category": "futuristic", "layout": "two"}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = rawJSONRequest(http.MethodPost, "/v1/admin/templates", definition)

	h.CreateTemplate(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteTemplateNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTemplateHandlerForTest(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/v1/admin/templates/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	h.DeleteTemplate(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}
