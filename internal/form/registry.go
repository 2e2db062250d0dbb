package form

import (
	"sort"

	"resumeforge/internal/resume"
)

// Registry 聚合内置字段与管理端追加的自定义字段。
// 内置字段只读；自定义字段与内置字段同名时不会去重（与管理端的现状保持一致）。
type Registry struct {
	builtin []FieldConfig
	custom  []FieldConfig
}

// NewRegistry 基于内置字段创建注册表。
func NewRegistry(custom []FieldConfig) *Registry {
	return &Registry{
		builtin: DefaultFields(),
		custom:  custom,
	}
}

// VisibleFields 返回某分区全部可见字段，按 Order 升序；
// Order 相同时保持内置在前、自定义在后的相对顺序。
func (r *Registry) VisibleFields(section resume.SectionKey) []FieldConfig {
	fields := make([]FieldConfig, 0, 8)
	for _, f := range r.builtin {
		if f.Section == section && f.Visible {
			fields = append(fields, f)
		}
	}
	for _, f := range r.custom {
		if f.Section == section && f.Visible {
			fields = append(fields, f)
		}
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Order < fields[j].Order
	})
	return fields
}

// Sections 返回注册表中出现过的分区集合（按文档分区固定顺序）。
func (r *Registry) Sections() []resume.SectionKey {
	present := make(map[resume.SectionKey]bool)
	for _, f := range r.builtin {
		present[f.Section] = true
	}
	for _, f := range r.custom {
		present[f.Section] = true
	}

	keys := make([]resume.SectionKey, 0, len(present))
	if present[resume.SectionPersonalInfo] {
		keys = append(keys, resume.SectionPersonalInfo)
	}
	for _, k := range resume.ListSectionKeys() {
		if present[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// DefaultFields 返回内置字段配置，顺序即默认渲染顺序。
func DefaultFields() []FieldConfig {
	return []FieldConfig{
		// personal_info
		{Name: "first_name", Type: TypeText, Label: "First Name", Required: true, Validation: Constraints{MaxLength: 50}, Section: resume.SectionPersonalInfo, Order: 1, Visible: true},
		{Name: "last_name", Type: TypeText, Label: "Last Name", Required: true, Validation: Constraints{MaxLength: 50}, Section: resume.SectionPersonalInfo, Order: 2, Visible: true},
		{Name: "title", Type: TypeText, Label: "Professional Title", Placeholder: "e.g. Software Engineer", Section: resume.SectionPersonalInfo, Order: 3, Visible: true},
		{Name: "email", Type: TypeEmail, Label: "Email", Required: true, Validation: Constraints{Pattern: `^[^@\s]+@[^@\s]+\.[^@\s]+$`}, Section: resume.SectionPersonalInfo, Order: 4, Visible: true},
		{Name: "phone", Type: TypePhone, Label: "Phone", Validation: Constraints{MaxLength: 30}, Section: resume.SectionPersonalInfo, Order: 5, Visible: true},
		{Name: "city", Type: TypeText, Label: "City", Section: resume.SectionPersonalInfo, Order: 6, Visible: true},
		{Name: "country", Type: TypeText, Label: "Country", Section: resume.SectionPersonalInfo, Order: 7, Visible: true},
		{Name: "linkedin", Type: TypeURL, Label: "LinkedIn", Section: resume.SectionPersonalInfo, Order: 8, Visible: true},
		{Name: "github", Type: TypeURL, Label: "GitHub", Section: resume.SectionPersonalInfo, Order: 9, Visible: true},
		{Name: "website", Type: TypeURL, Label: "Website", Section: resume.SectionPersonalInfo, Order: 10, Visible: true},
		{Name: "photo_key", Type: TypeImage, Label: "Photo", Section: resume.SectionPersonalInfo, Order: 11, Visible: true,
			FileConfig: &FileConstraints{AcceptedTypes: []string{"image/jpeg", "image/png", "image/webp"}, MaxSizeBytes: 5 << 20, MaxFiles: 1}},
		{Name: "summary", Type: TypeTextarea, Label: "Summary", Validation: Constraints{MaxLength: 2000}, Section: resume.SectionPersonalInfo, Order: 12, Visible: true},

		// experience
		{Name: "company", Type: TypeText, Label: "Company", Required: true, Section: resume.SectionExperience, Order: 1, Visible: true},
		{Name: "position", Type: TypeText, Label: "Position", Required: true, Section: resume.SectionExperience, Order: 2, Visible: true},
		{Name: "location", Type: TypeText, Label: "Location", Section: resume.SectionExperience, Order: 3, Visible: true},
		{Name: "start_date", Type: TypeDate, Label: "Start Date", Required: true, Section: resume.SectionExperience, Order: 4, Visible: true},
		{Name: "end_date", Type: TypeDate, Label: "End Date", Section: resume.SectionExperience, Order: 5, Visible: true},
		{Name: "is_current", Type: TypeCheckbox, Label: "Current Position", Section: resume.SectionExperience, Order: 6, Visible: true},
		{Name: "description", Type: TypeRichText, Label: "Description", Validation: Constraints{MaxLength: 5000}, Section: resume.SectionExperience, Order: 7, Visible: true},

		// education
		{Name: "institution", Type: TypeText, Label: "Institution", Required: true, Section: resume.SectionEducation, Order: 1, Visible: true},
		{Name: "degree", Type: TypeText, Label: "Degree", Required: true, Section: resume.SectionEducation, Order: 2, Visible: true},
		{Name: "field", Type: TypeText, Label: "Field of Study", Section: resume.SectionEducation, Order: 3, Visible: true},
		{Name: "start_date", Type: TypeDate, Label: "Start Date", Section: resume.SectionEducation, Order: 4, Visible: true},
		{Name: "end_date", Type: TypeDate, Label: "End Date", Section: resume.SectionEducation, Order: 5, Visible: true},
		{Name: "is_current", Type: TypeCheckbox, Label: "In Progress", Section: resume.SectionEducation, Order: 6, Visible: true},
		{Name: "gpa", Type: TypeText, Label: "GPA", Validation: Constraints{MaxLength: 10}, Section: resume.SectionEducation, Order: 7, Visible: true},

		// skills
		{Name: "name", Type: TypeText, Label: "Skill", Required: true, Validation: Constraints{MaxLength: 60}, Section: resume.SectionSkills, Order: 1, Visible: true},
		{Name: "category", Type: TypeText, Label: "Category", Placeholder: "e.g. Languages, Tools", Section: resume.SectionSkills, Order: 2, Visible: true},
		{Name: "level", Type: TypeSelect, Label: "Level", Options: []string{"Beginner", "Intermediate", "Advanced", "Expert"}, Section: resume.SectionSkills, Order: 3, Visible: true},

		// projects
		{Name: "name", Type: TypeText, Label: "Project Name", Required: true, Section: resume.SectionProjects, Order: 1, Visible: true},
		{Name: "role", Type: TypeText, Label: "Role", Section: resume.SectionProjects, Order: 2, Visible: true},
		{Name: "url", Type: TypeURL, Label: "Project URL", Section: resume.SectionProjects, Order: 3, Visible: true},
		{Name: "start_date", Type: TypeDate, Label: "Start Date", Section: resume.SectionProjects, Order: 4, Visible: true},
		{Name: "end_date", Type: TypeDate, Label: "End Date", Section: resume.SectionProjects, Order: 5, Visible: true},
		{Name: "is_current", Type: TypeCheckbox, Label: "Ongoing", Section: resume.SectionProjects, Order: 6, Visible: true},
		{Name: "description", Type: TypeRichText, Label: "Description", Validation: Constraints{MaxLength: 5000}, Section: resume.SectionProjects, Order: 7, Visible: true},
		{Name: "technologies", Type: TypeText, Label: "Technologies", Section: resume.SectionProjects, Order: 8, Visible: true},

		// certifications
		{Name: "name", Type: TypeText, Label: "Certification", Required: true, Section: resume.SectionCertifications, Order: 1, Visible: true},
		{Name: "issuer", Type: TypeText, Label: "Issuer", Section: resume.SectionCertifications, Order: 2, Visible: true},
		{Name: "issue_date", Type: TypeDate, Label: "Issue Date", Section: resume.SectionCertifications, Order: 3, Visible: true},
		{Name: "expiry_date", Type: TypeDate, Label: "Expiry Date", Section: resume.SectionCertifications, Order: 4, Visible: true},
		{Name: "url", Type: TypeURL, Label: "Credential URL", Section: resume.SectionCertifications, Order: 5, Visible: true},

		// languages
		{Name: "name", Type: TypeText, Label: "Language", Required: true, Section: resume.SectionLanguages, Order: 1, Visible: true},
		{Name: "proficiency", Type: TypeSelect, Label: "Proficiency", Options: []string{"Basic", "Conversational", "Fluent", "Native"}, Section: resume.SectionLanguages, Order: 2, Visible: true},

		// references
		{Name: "name", Type: TypeText, Label: "Name", Required: true, Section: resume.SectionReferences, Order: 1, Visible: true},
		{Name: "position", Type: TypeText, Label: "Position", Section: resume.SectionReferences, Order: 2, Visible: true},
		{Name: "company", Type: TypeText, Label: "Company", Section: resume.SectionReferences, Order: 3, Visible: true},
		{Name: "email", Type: TypeEmail, Label: "Email", Section: resume.SectionReferences, Order: 4, Visible: true},
		{Name: "phone", Type: TypePhone, Label: "Phone", Section: resume.SectionReferences, Order: 5, Visible: true},

		// custom_sections
		{Name: "title", Type: TypeText, Label: "Section Title", Required: true, Validation: Constraints{MaxLength: 100}, Section: resume.SectionCustom, Order: 1, Visible: true},
		{Name: "content", Type: TypeRichText, Label: "Content", Validation: Constraints{MaxLength: 10000}, Section: resume.SectionCustom, Order: 2, Visible: true},
	}
}
