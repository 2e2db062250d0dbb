package resume

// SectionKey 标识文档中的一个分区，与表单字段配置的 Section 对应。
type SectionKey string

const (
	SectionPersonalInfo   SectionKey = "personal_info"
	SectionExperience     SectionKey = "experience"
	SectionEducation      SectionKey = "education"
	SectionSkills         SectionKey = "skills"
	SectionProjects       SectionKey = "projects"
	SectionCertifications SectionKey = "certifications"
	SectionLanguages      SectionKey = "languages"
	SectionReferences     SectionKey = "references"
	SectionCustom         SectionKey = "custom_sections"
)

// ListSectionKeys 返回全部列表型分区（不含 personal_info），顺序固定。
func ListSectionKeys() []SectionKey {
	return []SectionKey{
		SectionExperience,
		SectionEducation,
		SectionSkills,
		SectionProjects,
		SectionCertifications,
		SectionLanguages,
		SectionReferences,
		SectionCustom,
	}
}

// ValidSection 判断 key 是否是已知分区。
func ValidSection(key SectionKey) bool {
	if key == SectionPersonalInfo {
		return true
	}
	for _, k := range ListSectionKeys() {
		if k == key {
			return true
		}
	}
	return false
}
