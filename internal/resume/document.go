package resume

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrUnknownSection 表示分区不存在或不是列表型分区。
	ErrUnknownSection = errors.New("unknown section")
	// ErrEntryNotFound 表示列表中没有对应 ID 的条目。
	ErrEntryNotFound = errors.New("entry not found")
)

// ApplyPersonalInfo 将表单提交的扁平键值合并进 PersonalInfo。
// 未出现的字段保持原值。
func (d *Data) ApplyPersonalInfo(values map[string]any) error {
	current, err := toMap(d.PersonalInfo)
	if err != nil {
		return err
	}
	for k, v := range values {
		current[k] = v
	}
	var merged PersonalInfo
	if err := fromMap(current, &merged); err != nil {
		return err
	}
	d.PersonalInfo = merged
	return nil
}

// AddEntry 在指定分区追加一个条目并返回新分配的 ID。
func (d *Data) AddEntry(section SectionKey, values map[string]any) (string, error) {
	id := uuid.NewString()
	payload := make(map[string]any, len(values)+1)
	for k, v := range values {
		payload[k] = v
	}
	payload["id"] = id

	var err error
	switch section {
	case SectionExperience:
		d.Experience, err = appendEntry(d.Experience, payload)
	case SectionEducation:
		d.Education, err = appendEntry(d.Education, payload)
	case SectionSkills:
		d.Skills, err = appendEntry(d.Skills, payload)
	case SectionProjects:
		d.Projects, err = appendEntry(d.Projects, payload)
	case SectionCertifications:
		d.Certifications, err = appendEntry(d.Certifications, payload)
	case SectionLanguages:
		d.Languages, err = appendEntry(d.Languages, payload)
	case SectionReferences:
		d.References, err = appendEntry(d.References, payload)
	case SectionCustom:
		d.CustomSections, err = appendEntry(d.CustomSections, payload)
	default:
		return "", fmt.Errorf("add entry to %q: %w", section, ErrUnknownSection)
	}
	if err != nil {
		return "", fmt.Errorf("add entry to %q: %w", section, err)
	}
	return id, nil
}

// UpdateEntry 对指定条目做部分合并：patch 中出现的字段覆盖原值，其余不变。
// patch 中的 id 字段会被忽略。
func (d *Data) UpdateEntry(section SectionKey, id string, patch map[string]any) error {
	var (
		found bool
		err   error
	)
	switch section {
	case SectionExperience:
		d.Experience, found, err = patchEntry(d.Experience, id, patch)
	case SectionEducation:
		d.Education, found, err = patchEntry(d.Education, id, patch)
	case SectionSkills:
		d.Skills, found, err = patchEntry(d.Skills, id, patch)
	case SectionProjects:
		d.Projects, found, err = patchEntry(d.Projects, id, patch)
	case SectionCertifications:
		d.Certifications, found, err = patchEntry(d.Certifications, id, patch)
	case SectionLanguages:
		d.Languages, found, err = patchEntry(d.Languages, id, patch)
	case SectionReferences:
		d.References, found, err = patchEntry(d.References, id, patch)
	case SectionCustom:
		d.CustomSections, found, err = patchEntry(d.CustomSections, id, patch)
	default:
		return fmt.Errorf("update entry in %q: %w", section, ErrUnknownSection)
	}
	if err != nil {
		return fmt.Errorf("update entry in %q: %w", section, err)
	}
	if !found {
		return fmt.Errorf("update entry %q in %q: %w", id, section, ErrEntryNotFound)
	}
	return nil
}

// DeleteEntry 按 ID 删除条目；条目不存在时返回 ErrEntryNotFound。
func (d *Data) DeleteEntry(section SectionKey, id string) error {
	var found bool
	switch section {
	case SectionExperience:
		d.Experience, found = removeEntry(d.Experience, id)
	case SectionEducation:
		d.Education, found = removeEntry(d.Education, id)
	case SectionSkills:
		d.Skills, found = removeEntry(d.Skills, id)
	case SectionProjects:
		d.Projects, found = removeEntry(d.Projects, id)
	case SectionCertifications:
		d.Certifications, found = removeEntry(d.Certifications, id)
	case SectionLanguages:
		d.Languages, found = removeEntry(d.Languages, id)
	case SectionReferences:
		d.References, found = removeEntry(d.References, id)
	case SectionCustom:
		d.CustomSections, found = removeEntry(d.CustomSections, id)
	default:
		return fmt.Errorf("delete entry from %q: %w", section, ErrUnknownSection)
	}
	if !found {
		return fmt.Errorf("delete entry %q from %q: %w", id, section, ErrEntryNotFound)
	}
	return nil
}

func appendEntry[T any](list []T, payload map[string]any) ([]T, error) {
	var entry T
	if err := fromMap(payload, &entry); err != nil {
		return list, err
	}
	return append(list, entry), nil
}

func patchEntry[T any](list []T, id string, patch map[string]any) ([]T, bool, error) {
	for i := range list {
		current, err := toMap(list[i])
		if err != nil {
			return list, false, err
		}
		if current["id"] != id {
			continue
		}
		for k, v := range patch {
			if k == "id" {
				continue
			}
			current[k] = v
		}
		var merged T
		if err := fromMap(current, &merged); err != nil {
			return list, false, err
		}
		list[i] = merged
		return list, true, nil
	}
	return list, false, nil
}

func removeEntry[T any](list []T, id string) ([]T, bool) {
	for i := range list {
		current, err := toMap(list[i])
		if err != nil {
			continue
		}
		if current["id"] != id {
			continue
		}
		return append(list[:i:i], list[i+1:]...), true
	}
	return list, false
}

// toMap/fromMap 通过 JSON 往返实现结构体与扁平键值的转换，
// 与存储格式使用同一套标签，保证合并语义一致。
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode entry map: %w", err)
	}
	return m, nil
}

func fromMap(m map[string]any, target any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode entry map: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode entry: %w", err)
	}
	return nil
}
