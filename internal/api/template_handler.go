package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeforge/internal/api/middleware"
	"resumeforge/internal/database"
	"resumeforge/internal/tasks"
	"resumeforge/internal/template"
)

// TemplateHandler 提供模板目录查询与管理端的自定义模板维护。
type TemplateHandler struct {
	db       *gorm.DB
	enqueuer taskEnqueuer
	storage  objectStorage
	logger   *slog.Logger
}

// NewTemplateHandler 构造模板处理器。
func NewTemplateHandler(db *gorm.DB, enqueuer taskEnqueuer, storageClient objectStorage, logger *slog.Logger) *TemplateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateHandler{db: db, enqueuer: enqueuer, storage: storageClient, logger: logger}
}

const templatePreviewURLTTL = 10 * time.Minute

type templateListItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Layout     template.Layout `json:"layout"`
	PreviewURL string          `json:"preview_url,omitempty"`
}

// ListTemplates 返回内置与自定义模板的并集，按分类分组由前端处理。
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	catalog, err := loadCatalog(c.Request.Context(), h.db, h.logger)
	if err != nil {
		Internal(c, "failed to load templates")
		return
	}

	items := make([]templateListItem, 0)
	for _, tpl := range catalog.All() {
		items = append(items, templateListItem{
			ID:         tpl.ID,
			Name:       tpl.Name,
			Category:   string(tpl.Category),
			Layout:     tpl.Layout,
			PreviewURL: h.previewURL(c.Request.Context(), tpl),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"templates":  items,
		"categories": template.Categories(),
	})
}

// GetTemplate 返回单个模板的完整定义。
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	catalog, err := loadCatalog(c.Request.Context(), h.db, h.logger)
	if err != nil {
		Internal(c, "failed to load templates")
		return
	}

	tpl, ok := catalog.Find(c.Param("id"))
	if !ok {
		NotFound(c, "template not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"template":    tpl,
		"preview_url": h.previewURL(c.Request.Context(), tpl),
	})
}

// CreateTemplate 管理端上传自定义模板定义，成功后异步生成预览图。
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		BadRequest(c, "failed to read request body")
		return
	}

	tpl, err := template.DecodeDefinition(raw)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	for _, builtin := range template.Builtin() {
		if builtin.ID == tpl.ID {
			Conflict(c, "template id collides with a builtin template")
			return
		}
	}

	definition, err := template.EncodeDefinition(tpl)
	if err != nil {
		Internal(c, "failed to encode template definition")
		return
	}

	row := database.Template{
		TemplateID: tpl.ID,
		Name:       tpl.Name,
		Category:   string(tpl.Category),
		Definition: definition,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, "template id already exists")
			return
		}
		h.logger.Error("create template failed", slog.Any("error", err))
		Internal(c, "failed to create template")
		return
	}

	h.enqueuePreview(c, tpl.ID)
	c.JSON(http.StatusCreated, gin.H{"id": tpl.ID})
}

// UpdateTemplate 整体替换自定义模板定义并重新生成预览图。
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id := c.Param("id")

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		BadRequest(c, "failed to read request body")
		return
	}

	tpl, err := template.DecodeDefinition(raw)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	if tpl.ID != id {
		BadRequest(c, "template id mismatch")
		return
	}

	definition, err := template.EncodeDefinition(tpl)
	if err != nil {
		Internal(c, "failed to encode template definition")
		return
	}

	result := h.db.WithContext(c.Request.Context()).
		Model(&database.Template{}).
		Where("template_id = ?", id).
		Updates(map[string]any{
			"name":       tpl.Name,
			"category":   string(tpl.Category),
			"definition": definition,
		})
	if result.Error != nil {
		h.logger.Error("update template failed", slog.Any("error", result.Error))
		Internal(c, "failed to update template")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "template not found")
		return
	}

	h.enqueuePreview(c, id)
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// DeleteTemplate 删除自定义模板；内置模板不在库中，天然不可删。
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id := c.Param("id")

	result := h.db.WithContext(c.Request.Context()).
		Where("template_id = ?", id).
		Delete(&database.Template{})
	if result.Error != nil {
		h.logger.Error("delete template failed", slog.Any("error", result.Error))
		Internal(c, "failed to delete template")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "template not found")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TemplateHandler) enqueuePreview(c *gin.Context, templateID string) {
	task, err := tasks.NewTemplatePreviewTask(templateID, middleware.GetCorrelationID(c))
	if err != nil {
		h.logger.Error("build preview task failed", slog.String("template_id", templateID), slog.Any("error", err))
		return
	}
	// 预览图生成失败不影响模板可用性，入队失败只记日志。
	if _, err := h.enqueuer.Enqueue(task); err != nil {
		h.logger.Error("enqueue preview task failed", slog.String("template_id", templateID), slog.Any("error", err))
	}
}

// previewURL 对预览图对象做预签名；对象尚未生成或签名失败时返回空串。
func (h *TemplateHandler) previewURL(ctx context.Context, tpl template.Template) string {
	key := tpl.PreviewKey
	if key == "" {
		key = templatePreviewObjectKey(tpl.ID)
	}
	url, err := h.storage.GeneratePresignedURL(ctx, key, templatePreviewURLTTL)
	if err != nil {
		h.logger.Warn("presign template preview failed", slog.String("template_id", tpl.ID), slog.Any("error", err))
		return ""
	}
	return url
}

func templatePreviewObjectKey(templateID string) string {
	return fmt.Sprintf("thumbnails/template/%s/preview.jpg", templateID)
}

// loadCatalog 合并内置模板与库中管理端维护的自定义模板。
// 单条定义损坏只跳过并告警，不让整个目录不可用。
func loadCatalog(ctx context.Context, db *gorm.DB, logger *slog.Logger) (*template.Catalog, error) {
	var rows []database.Template
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	custom := make([]template.Template, 0, len(rows))
	for _, row := range rows {
		tpl, err := template.DecodeDefinition(row.Definition)
		if err != nil {
			logger.Warn("skip invalid template definition",
				slog.String("template_id", row.TemplateID),
				slog.Any("error", err))
			continue
		}
		if row.PreviewKey != "" {
			tpl.PreviewKey = row.PreviewKey
		}
		custom = append(custom, tpl)
	}

	return template.NewCatalog(custom), nil
}
