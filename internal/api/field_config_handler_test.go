package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestValidateValuesReportsViolations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h := NewFieldConfigHandler(db, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/v1/form/validate", gin.H{
		"section": "personal_info",
		"values": gin.H{
			"first_name": "Ada",
			"last_name":  "",
			"email":      "not-an-email",
		},
	})

	h.ValidateValues(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Valid  bool              `json:"valid"`
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Valid {
		t.Fatal("submission should be invalid")
	}
	if _, ok := resp.Errors["last_name"]; !ok {
		t.Fatalf("expected violation for last_name, got %v", resp.Errors)
	}
	if _, ok := resp.Errors["email"]; !ok {
		t.Fatalf("expected violation for email, got %v", resp.Errors)
	}
}

func TestListFieldsRejectsUnknownSection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h := NewFieldConfigHandler(db, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/form/fields?section=hobbies", nil)

	h.ListFields(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCustomFieldAppearsInSection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h := NewFieldConfigHandler(db, nil)

	definition := []byte(`{
		"name": "portfolio_video",
		"type": "video",
		"label": "Portfolio Video",
		"section": "projects",
		"order": 20,
		"visible": true,
		"file_config": {"accepted_types": ["video/mp4"], "max_size_bytes": 52428800, "max_files": 1}
	}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = rawJSONRequest(http.MethodPost, "/v1/admin/field-configs", definition)

	h.CreateFieldConfig(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("create field: expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/form/fields?section=projects", nil)

	h.ListFields(c)
	if w.Code != http.StatusOK {
		t.Fatalf("list fields: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	found := false
	for _, f := range resp.Fields {
		if f.Name == "portfolio_video" {
			found = true
		}
	}
	if !found {
		t.Fatal("custom field missing from section fields")
	}
}

func TestCreateFieldConfigRejectsUnknownType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h := NewFieldConfigHandler(db, nil)

	definition := []byte(`{"name": "rating", "type": "stars", "label": "Rating", "section": "skills"}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = rawJSONRequest(http.MethodPost, "/v1/admin/field-configs", definition)

	h.CreateFieldConfig(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}
