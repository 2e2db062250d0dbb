package form

import "resumeforge/internal/resume"

// FieldType 枚举表单字段的输入类型。
type FieldType string

const (
	TypeText        FieldType = "text"
	TypeTextarea    FieldType = "textarea"
	TypeEmail       FieldType = "email"
	TypePhone       FieldType = "phone"
	TypeDate        FieldType = "date"
	TypeSelect      FieldType = "select"
	TypeMultiSelect FieldType = "multiselect"
	TypeFile        FieldType = "file"
	TypeImage       FieldType = "image"
	TypeVideo       FieldType = "video"
	TypeRichText    FieldType = "richtext"
	TypeNumber      FieldType = "number"
	TypeURL         FieldType = "url"
	TypeCheckbox    FieldType = "checkbox"
	TypeRadio       FieldType = "radio"
)

// ValidType 判断 t 是否为已知字段类型。
func ValidType(t FieldType) bool {
	switch t {
	case TypeText, TypeTextarea, TypeEmail, TypePhone, TypeDate,
		TypeSelect, TypeMultiSelect, TypeFile, TypeImage, TypeVideo,
		TypeRichText, TypeNumber, TypeURL, TypeCheckbox, TypeRadio:
		return true
	}
	return false
}

// Constraints 是提交时校验的约束集合；零值字段不参与校验。
type Constraints struct {
	MinLength int      `json:"min_length,omitempty"`
	MaxLength int      `json:"max_length,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
}

// FileConstraints 约束文件类字段（file/image/video）。
type FileConstraints struct {
	AcceptedTypes []string `json:"accepted_types,omitempty"`
	MaxSizeBytes  int64    `json:"max_size_bytes,omitempty"`
	MaxFiles      int      `json:"max_files,omitempty"`
}

// FieldConfig 描述一个表单字段。
// Order 决定同一分区内的渲染顺序；Section 必须是已知的文档分区。
type FieldConfig struct {
	Name        string             `json:"name"`
	Type        FieldType          `json:"type"`
	Label       string             `json:"label"`
	Placeholder string             `json:"placeholder,omitempty"`
	Required    bool               `json:"required"`
	Options     []string           `json:"options,omitempty"`
	Validation  Constraints        `json:"validation"`
	Section     resume.SectionKey  `json:"section"`
	Order       int                `json:"order"`
	Visible     bool               `json:"visible"`
	FileConfig  *FileConstraints   `json:"file_config,omitempty"`
}
