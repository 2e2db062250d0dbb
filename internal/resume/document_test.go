package resume

import (
	"errors"
	"testing"
)

func TestAddEntryAssignsUniqueIDs(t *testing.T) {
	doc := New()

	first, err := doc.AddEntry(SectionExperience, map[string]any{
		"company":  "Acme",
		"position": "Engineer",
	})
	if err != nil {
		t.Fatalf("add first entry: %v", err)
	}
	second, err := doc.AddEntry(SectionExperience, map[string]any{
		"company": "Globex",
	})
	if err != nil {
		t.Fatalf("add second entry: %v", err)
	}

	if first == "" || second == "" {
		t.Fatalf("expected non-empty ids, got %q and %q", first, second)
	}
	if first == second {
		t.Fatalf("expected unique ids, both were %q", first)
	}
	if len(doc.Experience) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(doc.Experience))
	}
	if doc.Experience[0].Company != "Acme" || doc.Experience[1].Company != "Globex" {
		t.Fatalf("entries out of order: %+v", doc.Experience)
	}
}

func TestAddEntryUnknownSection(t *testing.T) {
	doc := New()
	if _, err := doc.AddEntry("nope", map[string]any{}); !errors.Is(err, ErrUnknownSection) {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
}

func TestUpdateEntryIsPartialMerge(t *testing.T) {
	doc := New()
	id, err := doc.AddEntry(SectionEducation, map[string]any{
		"institution": "MIT",
		"degree":      "BSc",
		"field":       "CS",
	})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}

	if err := doc.UpdateEntry(SectionEducation, id, map[string]any{
		"degree": "MSc",
		"id":     "should-be-ignored",
	}); err != nil {
		t.Fatalf("update entry: %v", err)
	}

	entry := doc.Education[0]
	if entry.ID != id {
		t.Fatalf("id changed from %q to %q", id, entry.ID)
	}
	if entry.Degree != "MSc" {
		t.Fatalf("degree not updated: %q", entry.Degree)
	}
	if entry.Institution != "MIT" || entry.Field != "CS" {
		t.Fatalf("untouched fields lost: %+v", entry)
	}
}

func TestUpdateEntryNotFound(t *testing.T) {
	doc := New()
	err := doc.UpdateEntry(SectionSkills, "missing", map[string]any{"name": "Go"})
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestDeleteEntry(t *testing.T) {
	doc := New()
	keep, err := doc.AddEntry(SectionProjects, map[string]any{"name": "keep"})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}
	drop, err := doc.AddEntry(SectionProjects, map[string]any{"name": "drop"})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}

	if err := doc.DeleteEntry(SectionProjects, drop); err != nil {
		t.Fatalf("delete entry: %v", err)
	}
	if len(doc.Projects) != 1 || doc.Projects[0].ID != keep {
		t.Fatalf("unexpected remaining projects: %+v", doc.Projects)
	}

	if err := doc.DeleteEntry(SectionProjects, drop); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound on second delete, got %v", err)
	}
}

func TestApplyPersonalInfoMergesFlatPayload(t *testing.T) {
	doc := New()
	doc.PersonalInfo.FirstName = "Jane"
	doc.PersonalInfo.Email = "jane@x.com"

	if err := doc.ApplyPersonalInfo(map[string]any{
		"last_name": "Doe",
		"summary":   "Engineer.",
	}); err != nil {
		t.Fatalf("apply personal info: %v", err)
	}

	p := doc.PersonalInfo
	if p.FirstName != "Jane" || p.LastName != "Doe" || p.Email != "jane@x.com" || p.Summary != "Engineer." {
		t.Fatalf("unexpected personal info: %+v", p)
	}
	if p.FullName() != "Jane Doe" {
		t.Fatalf("unexpected full name %q", p.FullName())
	}
}

func TestGroupSkillsPreservesFirstSeenOrder(t *testing.T) {
	skills := []Skill{
		{ID: "1", Name: "Go", Category: "Lang"},
		{ID: "2", Name: "Docker", Category: "Tool"},
		{ID: "3", Name: "Rust", Category: "Lang"},
	}

	groups := GroupSkills(skills)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Category != "Lang" || groups[1].Category != "Tool" {
		t.Fatalf("unexpected group order: %q, %q", groups[0].Category, groups[1].Category)
	}
	if len(groups[0].Skills) != 2 || groups[0].Skills[0].Name != "Go" || groups[0].Skills[1].Name != "Rust" {
		t.Fatalf("unexpected Lang group: %+v", groups[0].Skills)
	}
}

func TestFormatDateRange(t *testing.T) {
	cases := []struct {
		start, end string
		current    bool
		want       string
	}{
		{"2020-01", "2022-06", false, "2020-01 - 2022-06"},
		{"2020-01", "", true, "2020-01 - Present"},
		{"", "", true, "Present"},
		{"2020-01", "", false, "2020-01"},
		{"", "2022-06", false, "2022-06"},
	}
	for _, tc := range cases {
		if got := FormatDateRange(tc.start, tc.end, tc.current); got != tc.want {
			t.Errorf("FormatDateRange(%q, %q, %v) = %q, want %q", tc.start, tc.end, tc.current, got, tc.want)
		}
	}
}
