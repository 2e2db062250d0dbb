package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/resume"
	"resumeforge/internal/store"
)

func newDocumentHandlerForTest(t *testing.T, db *gorm.DB) (*DocumentHandler, *store.Manager) {
	t.Helper()
	documents := store.NewManager(store.NewGormRepository(db), nil)
	return NewDocumentHandler(db, documents, nil), documents
}

func TestAddEntryRejectsMissingRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h, _ := newDocumentHandlerForTest(t, db)
	row := seedResume(t, db, 1)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/v1/resumes/1/sections/experience/entries", gin.H{
		"values": gin.H{"company": "Acme"},
	})
	c.Params = gin.Params{
		{Key: "id", Value: fmt.Sprint(row.ID)},
		{Key: "section", Value: "experience"},
	}
	c.Set("userID", uint(1))

	h.AddEntry(c)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp.Errors["position"]; !ok {
		t.Fatalf("expected violation for position, got %v", resp.Errors)
	}
	if _, ok := resp.Errors["start_date"]; !ok {
		t.Fatalf("expected violation for start_date, got %v", resp.Errors)
	}
}

func TestAddEntryThenGetDocument(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h, _ := newDocumentHandlerForTest(t, db)
	row := seedResume(t, db, 1)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/v1/resumes/1/sections/experience/entries", gin.H{
		"values": gin.H{
			"company":    "Acme",
			"position":   "Engineer",
			"start_date": "2021-03",
		},
	})
	c.Params = gin.Params{
		{Key: "id", Value: fmt.Sprint(row.ID)},
		{Key: "section", Value: "experience"},
	}
	c.Set("userID", uint(1))

	h.AddEntry(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("add entry: expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated entry id")
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/resumes/1/document", nil)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(row.ID)}}
	c.Set("userID", uint(1))

	h.GetDocument(c)
	if w.Code != http.StatusOK {
		t.Fatalf("get document: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var doc struct {
		Data struct {
			Experience []struct {
				ID      string `json:"id"`
				Company string `json:"company"`
			} `json:"experience"`
		} `json:"data"`
		Dirty bool `json:"dirty"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if len(doc.Data.Experience) != 1 {
		t.Fatalf("expected 1 experience entry got %d", len(doc.Data.Experience))
	}
	if doc.Data.Experience[0].ID != created.ID {
		t.Fatalf("entry id mismatch: %q vs %q", doc.Data.Experience[0].ID, created.ID)
	}
	if !doc.Dirty {
		t.Fatal("document should be dirty before the debounce window elapses")
	}
}

func TestAddEntryRejectsUnknownSection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h, _ := newDocumentHandlerForTest(t, db)
	row := seedResume(t, db, 1)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/v1/resumes/1/sections/hobbies/entries", gin.H{
		"values": gin.H{"name": "Chess"},
	})
	c.Params = gin.Params{
		{Key: "id", Value: fmt.Sprint(row.ID)},
		{Key: "section", Value: "hobbies"},
	}
	c.Set("userID", uint(1))

	h.AddEntry(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestFlushPersistsDocument(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h, _ := newDocumentHandlerForTest(t, db)
	row := seedResume(t, db, 1)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPatch, "/v1/resumes/1/personal-info", gin.H{
		"values": gin.H{
			"first_name": "Ada",
			"last_name":  "Lovelace",
			"email":      "ada@example.com",
		},
	})
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(row.ID)}}
	c.Set("userID", uint(1))

	h.UpdatePersonalInfo(c)
	if w.Code != http.StatusOK {
		t.Fatalf("update personal info: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/resumes/1/flush", nil)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(row.ID)}}
	c.Set("userID", uint(1))

	h.FlushDocument(c)
	if w.Code != http.StatusOK {
		t.Fatalf("flush: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var reloaded database.Resume
	if err := db.First(&reloaded, row.ID).Error; err != nil {
		t.Fatalf("reload resume: %v", err)
	}
	var persisted resume.Data
	if err := json.Unmarshal(reloaded.Data, &persisted); err != nil {
		t.Fatalf("decode persisted document: %v", err)
	}
	if persisted.PersonalInfo.FirstName != "Ada" {
		t.Fatalf("expected persisted first name Ada got %q", persisted.PersonalInfo.FirstName)
	}
}
