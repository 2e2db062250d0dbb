package resume

import "strings"

// SkillGroup 是按类别聚合后的技能组。
type SkillGroup struct {
	Category string
	Skills   []Skill
}

// GroupSkills 按 Category 分组，组顺序与类别首次出现的顺序一致，
// 组内保持原始顺序。空类别归入 "Other"。
func GroupSkills(skills []Skill) []SkillGroup {
	groups := make([]SkillGroup, 0, 4)
	index := make(map[string]int)

	for _, s := range skills {
		category := strings.TrimSpace(s.Category)
		if category == "" {
			category = "Other"
		}
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, SkillGroup{Category: category})
		}
		groups[i].Skills = append(groups[i].Skills, s)
	}

	return groups
}

// FormatDateRange 渲染条目的时间区间；进行中的条目以 "Present" 结尾。
func FormatDateRange(start, end string, isCurrent bool) string {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)

	switch {
	case isCurrent && start != "":
		return start + " - Present"
	case isCurrent:
		return "Present"
	case start != "" && end != "":
		return start + " - " + end
	case start != "":
		return start
	default:
		return end
	}
}

// FullName 拼接显示用姓名。
func (p PersonalInfo) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}
