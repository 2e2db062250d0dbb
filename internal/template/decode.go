package template

import (
	"encoding/json"
	"fmt"
)

// DecodeDefinition 解析持久化的模板定义 JSON 并做基础校验。
// 管理端写入与 Worker/API 读取共用这一入口，保证两侧语义一致。
func DecodeDefinition(raw []byte) (Template, error) {
	var tpl Template
	if err := json.Unmarshal(raw, &tpl); err != nil {
		return Template{}, fmt.Errorf("decode template definition: %w", err)
	}
	if tpl.ID == "" {
		return Template{}, fmt.Errorf("template definition missing id")
	}
	if !ValidCategory(tpl.Category) {
		return Template{}, fmt.Errorf("unknown template category %q", tpl.Category)
	}
	if !ValidLayout(tpl.Layout) {
		return Template{}, fmt.Errorf("unknown template layout %q", tpl.Layout)
	}
	return tpl, nil
}

// EncodeDefinition 序列化模板定义以便入库。
func EncodeDefinition(tpl Template) ([]byte, error) {
	raw, err := json.Marshal(tpl)
	if err != nil {
		return nil, fmt.Errorf("encode template definition: %w", err)
	}
	return raw, nil
}
