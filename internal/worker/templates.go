package worker

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/template"
)

// resolveTemplate 按 ID 解析模板：先查内置目录，再查管理端自定义模板。
// id 为空时回退到内置目录的第一个模板。
func resolveTemplate(ctx context.Context, db *gorm.DB, id string) (template.Template, error) {
	builtin := template.Builtin()
	if id == "" {
		return builtin[0], nil
	}
	for _, tpl := range builtin {
		if tpl.ID == id {
			return tpl, nil
		}
	}

	var row database.Template
	if err := db.WithContext(ctx).Where("template_id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return template.Template{}, fmt.Errorf("template %q not found", id)
		}
		return template.Template{}, fmt.Errorf("query template %q: %w", id, err)
	}
	return template.DecodeDefinition(row.Definition)
}
