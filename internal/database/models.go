package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 用户权限串，存储为逗号分隔列表。
const PermissionAdmin = "admin"

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Username     string   `gorm:"uniqueIndex;size:64"`
	Email        string   `gorm:"uniqueIndex;size:255"`
	PasswordHash string   `gorm:"size:255"`
	Permissions  string   `gorm:"size:255"`
	Resumes      []Resume `gorm:"constraint:OnDelete:CASCADE"`
}

// Resume 表示用户的一份简历文档。Data 是完整的文档 JSON。
type Resume struct {
	gorm.Model
	Title      string         `gorm:"size:255"`
	Data       datatypes.JSON `gorm:"type:jsonb"`
	TemplateID string         `gorm:"size:64"`
	UserID     uint           `gorm:"index"`
	User       User           `gorm:"constraint:OnDelete:CASCADE"`
	Published  bool           `gorm:"default:false"`
}

// Template 表示管理员追加的自定义模板，与内置目录取并集。
// Definition 存储完整的模板描述（配色、字体、布局、能力位）。
type Template struct {
	gorm.Model
	TemplateID string         `gorm:"uniqueIndex;size:64"`
	Name       string         `gorm:"size:255"`
	Category   string         `gorm:"size:32;index"`
	Definition datatypes.JSON `gorm:"type:jsonb"`
	PreviewKey string         `gorm:"size:512"`
}

// FieldConfig 表示管理员自定义的表单字段配置，按分区组织。
// Definition 存储完整的字段描述（类型、校验约束、文件限制等）。
type FieldConfig struct {
	gorm.Model
	Name       string         `gorm:"size:128;index"`
	Section    string         `gorm:"size:64;index"`
	Definition datatypes.JSON `gorm:"type:jsonb"`
	Visible    bool           `gorm:"default:true"`
}

// Asset 表示用户上传的文件及其派生产物。
type Asset struct {
	gorm.Model
	UserID       uint   `gorm:"index"`
	ObjectKey    string `gorm:"uniqueIndex;size:512"`
	ThumbnailKey string `gorm:"size:512"`
	Kind         string `gorm:"size:32"` // image / video / document
	ContentType  string `gorm:"size:128"`
	SizeBytes    int64
}

// ExportRecord 表示一次导出任务的产物与状态。
type ExportRecord struct {
	gorm.Model
	ResumeID  uint   `gorm:"index"`
	UserID    uint   `gorm:"index"`
	Format    string `gorm:"size:16"`
	ObjectKey string `gorm:"size:512"`
	Status    string `gorm:"size:32"` // pending / completed / failed
	Error     string `gorm:"size:1024"`
}

// 导出任务状态。
const (
	ExportStatusPending   = "pending"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)
