package form

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumeforge/internal/resume"
)

// DecodeDefinition 解析持久化的字段定义 JSON 并做基础校验。
// 管理端写入与校验端读取共用这一入口。
// 重名字段与悬空分区引用不在此处拦截，只做存在性检查。
func DecodeDefinition(raw []byte) (FieldConfig, error) {
	var field FieldConfig
	if err := json.Unmarshal(raw, &field); err != nil {
		return FieldConfig{}, fmt.Errorf("decode field definition: %w", err)
	}
	if strings.TrimSpace(field.Name) == "" {
		return FieldConfig{}, fmt.Errorf("field definition missing name")
	}
	if !ValidType(field.Type) {
		return FieldConfig{}, fmt.Errorf("unknown field type %q", field.Type)
	}
	if !resume.ValidSection(field.Section) {
		return FieldConfig{}, fmt.Errorf("unknown field section %q", field.Section)
	}
	return field, nil
}

// EncodeDefinition 序列化字段定义以便入库。
func EncodeDefinition(field FieldConfig) ([]byte, error) {
	raw, err := json.Marshal(field)
	if err != nil {
		return nil, fmt.Errorf("encode field definition: %w", err)
	}
	return raw, nil
}
