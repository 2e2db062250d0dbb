package template

import (
	"strings"
	"testing"

	"resumeforge/internal/resume"
)

func sampleTemplate(c Category, l Layout) Template {
	return Template{
		ID: "test", Name: "Test", Category: c, Layout: l,
		Palette: Palette{Primary: "#111111", Secondary: "#222222", Accent: "#333333", Text: "#000000", Background: "#ffffff"},
		Fonts:   FontPair{Heading: "Georgia", Body: "Arial"},
	}
}

func TestRenderHeaderOmitsEmptySections(t *testing.T) {
	doc := resume.New()
	doc.PersonalInfo = resume.PersonalInfo{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
	}

	html, err := Render(doc, sampleTemplate(CategoryTraditional, LayoutSingleColumn))
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if got := strings.Count(html, "Jane Doe"); got != 1 {
		t.Fatalf("expected name exactly once, got %d occurrences", got)
	}
	if strings.Contains(html, "Professional Experience") {
		t.Fatalf("empty experience section rendered: %s", html)
	}
}

func TestRenderNonEmptySectionsAppearOnce(t *testing.T) {
	doc := resume.New()
	doc.PersonalInfo = resume.PersonalInfo{FirstName: "Jane", LastName: "Doe", Summary: "Builds things."}
	doc.Experience = []resume.Experience{
		{ID: "e1", Company: "Acme", Position: "Engineer", StartDate: "2020-01", IsCurrent: true},
		{ID: "e2", Company: "Globex", Position: "Intern", StartDate: "2018-06", EndDate: "2019-08"},
	}

	html, err := Render(doc, sampleTemplate(CategoryModern, LayoutTwoColumn))
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if got := strings.Count(html, "Professional Experience"); got != 1 {
		t.Fatalf("expected one experience heading, got %d", got)
	}
	if got := strings.Count(html, "Present"); got != 1 {
		t.Fatalf("expected Present exactly once (only current entry), got %d", got)
	}
	if !strings.Contains(html, "Acme") || !strings.Contains(html, "Globex") {
		t.Fatal("experience entries missing from output")
	}
}

func TestRenderSkillsGroupOrder(t *testing.T) {
	doc := resume.New()
	doc.PersonalInfo.FirstName = "A"
	doc.Skills = []resume.Skill{
		{ID: "1", Name: "Go", Category: "Lang"},
		{ID: "2", Name: "Docker", Category: "Tool"},
		{ID: "3", Name: "Rust", Category: "Lang"},
	}

	html, err := Render(doc, sampleTemplate(CategoryTechnical, LayoutSingleColumn))
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	lang := strings.Index(html, "Lang")
	tool := strings.Index(html, "Tool")
	if lang < 0 || tool < 0 || lang > tool {
		t.Fatalf("expected Lang before Tool, positions %d and %d", lang, tool)
	}
}

func TestRenderRichTextPassesSanitizedHTMLThrough(t *testing.T) {
	doc := resume.New()
	doc.PersonalInfo.FirstName = "A"
	doc.CustomSections = []resume.CustomSection{
		{ID: "c1", Title: "Awards", Content: "<p>First place</p>"},
	}

	html, err := Render(doc, sampleTemplate(CategoryCreative, LayoutSingleColumn))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "<p>First place</p>") {
		t.Fatalf("rich text escaped instead of passed through: %s", html)
	}
	if !strings.Contains(html, "Awards") {
		t.Fatal("custom section title missing")
	}
}

func TestRenderDispatchCoversAllCategories(t *testing.T) {
	doc := resume.New()
	doc.PersonalInfo.FirstName = "A"
	doc.Experience = []resume.Experience{{ID: "e", Company: "C", Position: "P"}}

	for _, c := range Categories() {
		if _, err := Render(doc, sampleTemplate(c, LayoutTwoColumn)); err != nil {
			t.Errorf("render category %q: %v", c, err)
		}
	}

	if _, err := Render(doc, sampleTemplate("bogus", LayoutSingleColumn)); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestCategoryOrdersContainAllExportKeys(t *testing.T) {
	want := ExportOrder()
	for _, c := range Categories() {
		order := CategoryOrder(c)
		if len(order) != len(want) {
			t.Fatalf("category %q order has %d keys, want %d", c, len(order), len(want))
		}
		seen := make(map[string]bool, len(order))
		for _, k := range order {
			seen[k] = true
		}
		for _, k := range want {
			if !seen[k] {
				t.Errorf("category %q order missing key %q", c, k)
			}
		}
	}
}

func TestCatalogUnionAndFind(t *testing.T) {
	custom := []Template{sampleTemplate(CategoryModern, LayoutSingleColumn)}
	custom[0].ID = "user-made"
	catalog := NewCatalog(custom)

	if len(catalog.All()) != len(Builtin())+1 {
		t.Fatalf("expected union of builtin and custom, got %d", len(catalog.All()))
	}
	if _, ok := catalog.Find("user-made"); !ok {
		t.Fatal("custom template not found")
	}
	if _, ok := catalog.Find("classic-chronological"); !ok {
		t.Fatal("builtin template not found")
	}
	if _, ok := catalog.Find("nope"); ok {
		t.Fatal("unexpected template found")
	}
}
