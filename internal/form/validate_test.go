package form

import (
	"strings"
	"testing"

	"resumeforge/internal/resume"
)

func TestVisibleFieldsOrdering(t *testing.T) {
	custom := []FieldConfig{
		{Name: "hidden", Type: TypeText, Label: "Hidden", Section: resume.SectionSkills, Order: 0, Visible: false},
		{Name: "first", Type: TypeText, Label: "First", Section: resume.SectionSkills, Order: 0, Visible: true},
	}
	registry := NewRegistry(custom)

	fields := registry.VisibleFields(resume.SectionSkills)
	if len(fields) == 0 {
		t.Fatal("expected visible fields")
	}
	for _, f := range fields {
		if !f.Visible {
			t.Fatalf("invisible field %q rendered", f.Name)
		}
	}
	for i := 1; i < len(fields); i++ {
		if fields[i-1].Order > fields[i].Order {
			t.Fatalf("fields not sorted by order: %q(%d) before %q(%d)",
				fields[i-1].Name, fields[i-1].Order, fields[i].Name, fields[i].Order)
		}
	}
	if fields[0].Name != "first" {
		t.Fatalf("custom order-0 field should come first, got %q", fields[0].Name)
	}
}

func TestValidateRequiredField(t *testing.T) {
	fields := []FieldConfig{
		{Name: "company", Type: TypeText, Label: "Company", Required: true, Section: resume.SectionExperience, Visible: true},
	}

	violations := Validate(fields, map[string]any{"company": "   "})
	if msg, ok := violations["company"]; !ok || msg == "" {
		t.Fatalf("expected required violation, got %v", violations)
	}

	violations = Validate(fields, map[string]any{"company": "Acme"})
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
}

func TestValidateStringConstraints(t *testing.T) {
	fields := []FieldConfig{
		{Name: "gpa", Type: TypeText, Label: "GPA", Validation: Constraints{MaxLength: 4}},
		{Name: "email", Type: TypeEmail, Label: "Email", Validation: Constraints{Pattern: `^[^@\s]+@[^@\s]+\.[^@\s]+$`}},
	}

	violations := Validate(fields, map[string]any{
		"gpa":   "3.95/4.0",
		"email": "not-an-email",
	})
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", violations)
	}
}

func TestValidateNumberCoercion(t *testing.T) {
	min, max := 0.0, 40.0
	fields := []FieldConfig{
		{Name: "years", Type: TypeNumber, Label: "Years", Validation: Constraints{Min: &min, Max: &max}},
	}

	if v := Validate(fields, map[string]any{"years": "12"}); len(v) != 0 {
		t.Fatalf("string number rejected: %v", v)
	}
	if v := Validate(fields, map[string]any{"years": "dozen"}); len(v) != 1 {
		t.Fatalf("expected violation for non-number, got %v", v)
	}
	if v := Validate(fields, map[string]any{"years": 55.0}); len(v) != 1 {
		t.Fatalf("expected out-of-bounds violation, got %v", v)
	}
}

func TestValidateMultiSelect(t *testing.T) {
	fields := []FieldConfig{
		{Name: "tags", Type: TypeMultiSelect, Label: "Tags", Options: []string{"a", "b"}},
	}

	if v := Validate(fields, map[string]any{"tags": []string{"a", "b"}}); len(v) != 0 {
		t.Fatalf("valid set rejected: %v", v)
	}
	if v := Validate(fields, map[string]any{"tags": []string{"a", "z"}}); len(v) != 1 {
		t.Fatalf("expected unknown-option violation, got %v", v)
	}
}

func TestValidateSelectOutsideOptionsIsAccepted(t *testing.T) {
	// 与前端一致的已知缺口：单选值不校验 Options。
	fields := []FieldConfig{
		{Name: "level", Type: TypeSelect, Label: "Level", Options: []string{"Beginner", "Expert"}},
	}
	if v := Validate(fields, map[string]any{"level": "Wizard"}); len(v) != 0 {
		t.Fatalf("select outside options should pass, got %v", v)
	}
}

func TestValidateSanitizesRichText(t *testing.T) {
	fields := []FieldConfig{
		{Name: "description", Type: TypeRichText, Label: "Description"},
	}
	values := map[string]any{
		"description": `<p>fine</p><script>alert("x")</script>`,
	}

	if v := Validate(fields, values); len(v) != 0 {
		t.Fatalf("unexpected violations: %v", v)
	}
	got, _ := values["description"].(string)
	if strings.Contains(got, "<script>") {
		t.Fatalf("script tag survived sanitization: %q", got)
	}
	if !strings.Contains(got, "<p>fine</p>") {
		t.Fatalf("benign markup lost: %q", got)
	}
}

func TestValidateFileMaxCount(t *testing.T) {
	fields := []FieldConfig{
		{Name: "gallery", Type: TypeImage, Label: "Gallery",
			FileConfig: &FileConstraints{MaxFiles: 2}},
	}
	if v := Validate(fields, map[string]any{"gallery": []string{"k1", "k2", "k3"}}); len(v) != 1 {
		t.Fatalf("expected max-files violation, got %v", v)
	}
}

func TestDefaultFieldsSectionsAreValid(t *testing.T) {
	for _, f := range DefaultFields() {
		if !resume.ValidSection(f.Section) {
			t.Errorf("field %q references unknown section %q", f.Name, f.Section)
		}
		if !ValidType(f.Type) {
			t.Errorf("field %q has unknown type %q", f.Name, f.Type)
		}
	}
}
