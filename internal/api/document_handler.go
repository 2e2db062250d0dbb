package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/form"
	"resumeforge/internal/resume"
	"resumeforge/internal/store"
)

// DocumentHandler 负责文档编辑操作：个人信息合并与分区条目的增删改。
// 提交值先经字段配置校验，通过后才进入 DocumentStore（触发去抖自动保存）。
type DocumentHandler struct {
	db        *gorm.DB
	documents *store.Manager
	logger    *slog.Logger
}

// NewDocumentHandler 构造文档编辑处理器。
func NewDocumentHandler(db *gorm.DB, documents *store.Manager, logger *slog.Logger) *DocumentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentHandler{db: db, documents: documents, logger: logger}
}

type valuesRequest struct {
	Values map[string]any `json:"values" binding:"required"`
}

// UpdatePersonalInfo 合并个人信息字段。
func (h *DocumentHandler) UpdatePersonalInfo(c *gin.Context) {
	st, ok := h.acquireStore(c)
	if !ok {
		return
	}

	var req valuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	fields, err := h.visibleFields(c.Request.Context(), resume.SectionPersonalInfo)
	if err != nil {
		Internal(c, "failed to load field configs")
		return
	}
	if violations := form.Validate(fields, req.Values); len(violations) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": violations})
		return
	}

	if err := st.UpdatePersonalInfo(req.Values); err != nil {
		BadRequest(c, err.Error())
		return
	}

	h.replyAutosaveState(c, http.StatusOK, st)
}

// AddEntry 在指定分区追加条目。
func (h *DocumentHandler) AddEntry(c *gin.Context) {
	st, ok := h.acquireStore(c)
	if !ok {
		return
	}
	section, ok := h.listSectionFromParam(c)
	if !ok {
		return
	}

	var req valuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	fields, err := h.visibleFields(c.Request.Context(), section)
	if err != nil {
		Internal(c, "failed to load field configs")
		return
	}
	if violations := form.Validate(fields, req.Values); len(violations) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": violations})
		return
	}

	id, err := st.AddEntry(section, req.Values)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":             id,
		"autosave_state": st.State(),
	})
}

// UpdateEntry 对条目做部分合并；patch 中出现的字段覆盖原值。
func (h *DocumentHandler) UpdateEntry(c *gin.Context) {
	st, ok := h.acquireStore(c)
	if !ok {
		return
	}
	section, ok := h.listSectionFromParam(c)
	if !ok {
		return
	}

	var req valuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	// 部分合并只校验提交的字段，required 约束对缺席字段不生效。
	fields, err := h.visibleFields(c.Request.Context(), section)
	if err != nil {
		Internal(c, "failed to load field configs")
		return
	}
	if violations := form.Validate(presentFieldsOnly(fields, req.Values), req.Values); len(violations) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": violations})
		return
	}

	if err := st.UpdateEntry(section, c.Param("entryID"), req.Values); err != nil {
		if errors.Is(err, resume.ErrEntryNotFound) {
			NotFound(c, "entry not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}

	h.replyAutosaveState(c, http.StatusOK, st)
}

// DeleteEntry 删除条目。
func (h *DocumentHandler) DeleteEntry(c *gin.Context) {
	st, ok := h.acquireStore(c)
	if !ok {
		return
	}
	section, ok := h.listSectionFromParam(c)
	if !ok {
		return
	}

	if err := st.DeleteEntry(section, c.Param("entryID")); err != nil {
		if errors.Is(err, resume.ErrEntryNotFound) {
			NotFound(c, "entry not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// GetDocument 返回包含未落盘编辑的当前文档及自动保存状态。
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	st, ok := h.acquireStore(c)
	if !ok {
		return
	}

	resp := gin.H{
		"data":           st.Document(),
		"dirty":          st.Dirty(),
		"autosave_state": st.State(),
	}
	if err := st.LastError(); err != nil {
		resp["last_error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// SetDocument 整体替换文档。
func (h *DocumentHandler) SetDocument(c *gin.Context) {
	st, ok := h.acquireStore(c)
	if !ok {
		return
	}

	var doc resume.Data
	if err := c.ShouldBindJSON(&doc); err != nil {
		BadRequest(c, err.Error())
		return
	}

	st.SetDocument(doc)
	h.replyAutosaveState(c, http.StatusOK, st)
}

// ResetDocument 恢复为空白文档。
func (h *DocumentHandler) ResetDocument(c *gin.Context) {
	st, ok := h.acquireStore(c)
	if !ok {
		return
	}

	st.Reset()
	h.replyAutosaveState(c, http.StatusOK, st)
}

// FlushDocument 立即落盘未保存的变更，跳过去抖窗口。
func (h *DocumentHandler) FlushDocument(c *gin.Context) {
	st, ok := h.acquireStore(c)
	if !ok {
		return
	}

	if err := st.Flush(c.Request.Context()); err != nil {
		h.logger.Error("flush document failed", slog.Any("error", err))
		Internal(c, "failed to save document")
		return
	}
	h.replyAutosaveState(c, http.StatusOK, st)
}

func (h *DocumentHandler) replyAutosaveState(c *gin.Context, status int, st *store.DocumentStore) {
	c.JSON(status, gin.H{
		"dirty":          st.Dirty(),
		"autosave_state": st.State(),
	})
}

// acquireStore 做所有权检查后返回简历的 DocumentStore。
func (h *DocumentHandler) acquireStore(c *gin.Context) (*store.DocumentStore, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	row, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidResumeID):
			BadRequest(c, "invalid resume id")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "resume not found")
		default:
			Internal(c, "failed to query resume")
		}
		return nil, false
	}

	return h.documents.Acquire(c.Request.Context(), row.ID), true
}

func (h *DocumentHandler) getResumeForUser(ctx context.Context, idParam string, userID uint) (*database.Resume, error) {
	handler := ResumeHandler{db: h.db}
	return handler.getResumeForUser(ctx, idParam, userID)
}

func (h *DocumentHandler) listSectionFromParam(c *gin.Context) (resume.SectionKey, bool) {
	section := resume.SectionKey(c.Param("section"))
	if !resume.ValidSection(section) || section == resume.SectionPersonalInfo {
		BadRequest(c, "unknown section")
		return "", false
	}
	return section, true
}

// visibleFields 构建内置字段与管理端自定义字段的并集。
func (h *DocumentHandler) visibleFields(ctx context.Context, section resume.SectionKey) ([]form.FieldConfig, error) {
	custom, err := loadCustomFields(ctx, h.db, h.logger)
	if err != nil {
		return nil, err
	}
	return form.NewRegistry(custom).VisibleFields(section), nil
}

// presentFieldsOnly 过滤出提交值中出现的字段，用于部分合并的校验。
func presentFieldsOnly(fields []form.FieldConfig, values map[string]any) []form.FieldConfig {
	out := make([]form.FieldConfig, 0, len(fields))
	for _, f := range fields {
		if _, ok := values[f.Name]; ok {
			out = append(out, f)
		}
	}
	return out
}
