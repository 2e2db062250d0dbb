package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/form"
	"resumeforge/internal/resume"
)

// FieldConfigHandler 提供动态表单的字段查询、值校验与管理端字段维护。
type FieldConfigHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewFieldConfigHandler 构造字段配置处理器。
func NewFieldConfigHandler(db *gorm.DB, logger *slog.Logger) *FieldConfigHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldConfigHandler{db: db, logger: logger}
}

// ListFields 返回指定分区的可见字段，按 order 升序。
func (h *FieldConfigHandler) ListFields(c *gin.Context) {
	section := resume.SectionKey(c.Query("section"))
	if !resume.ValidSection(section) {
		BadRequest(c, "unknown section")
		return
	}

	registry, err := h.registry(c.Request.Context())
	if err != nil {
		Internal(c, "failed to load field configs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"fields": registry.VisibleFields(section)})
}

// ListSections 返回存在可见字段的分区列表。
func (h *FieldConfigHandler) ListSections(c *gin.Context) {
	registry, err := h.registry(c.Request.Context())
	if err != nil {
		Internal(c, "failed to load field configs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sections": registry.Sections()})
}

type validateRequest struct {
	Section resume.SectionKey `json:"section" binding:"required"`
	Values  map[string]any    `json:"values" binding:"required"`
}

// ValidateValues 对一组提交值做校验，不落任何数据。
// 前端在失焦或提交前调用，与写入路径共用同一套约束。
func (h *FieldConfigHandler) ValidateValues(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if !resume.ValidSection(req.Section) {
		BadRequest(c, "unknown section")
		return
	}

	registry, err := h.registry(c.Request.Context())
	if err != nil {
		Internal(c, "failed to load field configs")
		return
	}

	violations := form.Validate(registry.VisibleFields(req.Section), req.Values)
	c.JSON(http.StatusOK, gin.H{
		"valid":  len(violations) == 0,
		"errors": violations,
	})
}

type fieldConfigItem struct {
	ID      uint             `json:"id"`
	Field   form.FieldConfig `json:"field"`
	Visible bool             `json:"visible"`
}

// ListFieldConfigs 管理端列出全部自定义字段，含隐藏字段。
func (h *FieldConfigHandler) ListFieldConfigs(c *gin.Context) {
	var rows []database.FieldConfig
	if err := h.db.WithContext(c.Request.Context()).Order("section, id").Find(&rows).Error; err != nil {
		Internal(c, "failed to query field configs")
		return
	}

	items := make([]fieldConfigItem, 0, len(rows))
	for _, row := range rows {
		field, err := form.DecodeDefinition(row.Definition)
		if err != nil {
			h.logger.Warn("skip invalid field definition", slog.Uint64("id", uint64(row.ID)), slog.Any("error", err))
			continue
		}
		items = append(items, fieldConfigItem{ID: row.ID, Field: field, Visible: row.Visible})
	}

	c.JSON(http.StatusOK, gin.H{"field_configs": items})
}

// CreateFieldConfig 管理端新增自定义字段。
func (h *FieldConfigHandler) CreateFieldConfig(c *gin.Context) {
	field, raw, ok := h.decodeFieldBody(c)
	if !ok {
		return
	}

	row := database.FieldConfig{
		Name:       field.Name,
		Section:    string(field.Section),
		Definition: raw,
		Visible:    field.Visible,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&row).Error; err != nil {
		h.logger.Error("create field config failed", slog.Any("error", err))
		Internal(c, "failed to create field config")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": row.ID})
}

// UpdateFieldConfig 管理端整体替换字段定义。
func (h *FieldConfigHandler) UpdateFieldConfig(c *gin.Context) {
	id, ok := fieldConfigIDFromParam(c)
	if !ok {
		return
	}
	field, raw, ok := h.decodeFieldBody(c)
	if !ok {
		return
	}

	result := h.db.WithContext(c.Request.Context()).
		Model(&database.FieldConfig{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":       field.Name,
			"section":    string(field.Section),
			"definition": raw,
			"visible":    field.Visible,
		})
	if result.Error != nil {
		h.logger.Error("update field config failed", slog.Any("error", result.Error))
		Internal(c, "failed to update field config")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "field config not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// DeleteFieldConfig 管理端删除自定义字段；已有文档中的对应值原样保留。
func (h *FieldConfigHandler) DeleteFieldConfig(c *gin.Context) {
	id, ok := fieldConfigIDFromParam(c)
	if !ok {
		return
	}

	result := h.db.WithContext(c.Request.Context()).Delete(&database.FieldConfig{}, id)
	if result.Error != nil {
		h.logger.Error("delete field config failed", slog.Any("error", result.Error))
		Internal(c, "failed to delete field config")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "field config not found")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FieldConfigHandler) registry(ctx context.Context) (*form.Registry, error) {
	custom, err := loadCustomFields(ctx, h.db, h.logger)
	if err != nil {
		return nil, err
	}
	return form.NewRegistry(custom), nil
}

func (h *FieldConfigHandler) decodeFieldBody(c *gin.Context) (form.FieldConfig, []byte, bool) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		BadRequest(c, "failed to read request body")
		return form.FieldConfig{}, nil, false
	}

	field, err := form.DecodeDefinition(raw)
	if err != nil {
		BadRequest(c, err.Error())
		return form.FieldConfig{}, nil, false
	}

	// 重新编码，避免把请求体里的多余键原样入库。
	encoded, err := form.EncodeDefinition(field)
	if err != nil {
		Internal(c, "failed to encode field definition")
		return form.FieldConfig{}, nil, false
	}
	return field, encoded, true
}

func fieldConfigIDFromParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid field config id")
		return 0, false
	}
	return uint(id), true
}

// loadCustomFields 读取管理端维护的自定义字段定义。
// 单条定义损坏只跳过并告警，不影响内置字段的可用性。
func loadCustomFields(ctx context.Context, db *gorm.DB, logger *slog.Logger) ([]form.FieldConfig, error) {
	var rows []database.FieldConfig
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	fields := make([]form.FieldConfig, 0, len(rows))
	for _, row := range rows {
		field, err := form.DecodeDefinition(row.Definition)
		if err != nil {
			logger.Warn("skip invalid field definition",
				slog.Uint64("id", uint64(row.ID)),
				slog.Any("error", err))
			continue
		}
		// 行级可见性覆盖定义内的 visible 位，管理端用它做软下线。
		field.Visible = row.Visible
		fields = append(fields, field)
	}
	return fields, nil
}
