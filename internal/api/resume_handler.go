package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"resumeforge/internal/api/middleware"
	"resumeforge/internal/database"
	"resumeforge/internal/export"
	"resumeforge/internal/resume"
	"resumeforge/internal/store"
	"resumeforge/internal/tasks"
	"resumeforge/internal/template"
)

// objectStorage 是处理器依赖的对象存储操作子集。
type objectStorage interface {
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	GeneratePresignedURLWithParams(ctx context.Context, objectKey string, duration time.Duration, params map[string]string) (string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// taskEnqueuer 覆盖 *asynq.Client 的入队方法，测试替换为假实现。
type taskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ResumeHandler 负责处理与简历相关的 API 请求。
type ResumeHandler struct {
	db         *gorm.DB
	documents  *store.Manager
	enqueuer   taskEnqueuer
	storage    objectStorage
	logger     *slog.Logger
	maxResumes int
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(db *gorm.DB, documents *store.Manager, enqueuer taskEnqueuer, storageClient objectStorage, logger *slog.Logger, maxResumes int) *ResumeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResumeHandler{
		db:         db,
		documents:  documents,
		enqueuer:   enqueuer,
		storage:    storageClient,
		logger:     logger,
		maxResumes: maxResumes,
	}
}

var errInvalidResumeID = errors.New("invalid resume id")

type createResumeRequest struct {
	Title      string `json:"title" binding:"required,max=255"`
	TemplateID string `json:"template_id"`
}

type updateResumeRequest struct {
	Title      *string `json:"title"`
	TemplateID *string `json:"template_id"`
}

type resumeListItem struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	TemplateID string    `json:"template_id"`
	Published  bool      `json:"published"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type resumeResponse struct {
	ID         uint        `json:"id"`
	Title      string      `json:"title"`
	TemplateID string      `json:"template_id"`
	Published  bool        `json:"published"`
	Data       resume.Data `json:"data"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// CreateResume 新建一份空白简历，超过限额则拒绝。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	var req createResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var count int64
	if err := h.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		Internal(c, "failed to count resumes")
		return
	}
	if h.maxResumes > 0 && count >= int64(h.maxResumes) {
		Forbidden(c, "resume limit reached")
		return
	}

	templateID := req.TemplateID
	if templateID == "" {
		templateID = template.Builtin()[0].ID
	}

	doc := resume.New()
	raw, err := json.Marshal(doc)
	if err != nil {
		Internal(c, "failed to encode document")
		return
	}

	row := database.Resume{
		Title:      req.Title,
		Data:       raw,
		TemplateID: templateID,
		UserID:     userID,
	}
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		Internal(c, "failed to create resume")
		return
	}

	c.JSON(http.StatusCreated, newResumeResponse(row, doc))
}

// ListResumes 列出用户全部简历。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	var rows []database.Resume
	if err := h.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeListItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, resumeListItem{
			ID:         r.ID,
			Title:      r.Title,
			TemplateID: r.TemplateID,
			Published:  r.Published,
			CreatedAt:  r.CreatedAt,
			UpdatedAt:  r.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetResume 返回指定简历，文档取自 DocumentStore 以包含未落盘的编辑。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	row, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.replyResumeLookupError(c, err)
		return
	}

	st := h.documents.Acquire(c.Request.Context(), row.ID)
	c.JSON(http.StatusOK, newResumeResponse(*row, st.Document()))
}

// UpdateResume 更新标题或模板。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	var req updateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	row, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.replyResumeLookupError(c, err)
		return
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.TemplateID != nil {
		updates["template_id"] = *req.TemplateID
	}
	if len(updates) == 0 {
		BadRequest(c, "nothing to update")
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Model(row).Updates(updates).Error; err != nil {
		Internal(c, "failed to update resume")
		return
	}
	if err := h.db.WithContext(ctx).First(row, row.ID).Error; err != nil {
		Internal(c, "failed to reload resume")
		return
	}

	st := h.documents.Acquire(ctx, row.ID)
	c.JSON(http.StatusOK, newResumeResponse(*row, st.Document()))
}

// DeleteResume 删除指定简历并丢弃其缓存文档。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	row, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.replyResumeLookupError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Delete(&database.Resume{}, row.ID).Error; err != nil {
		Internal(c, "failed to delete resume")
		return
	}
	h.documents.Forget(row.ID)

	c.Status(http.StatusNoContent)
}

// PublishResume 将简历标记为公开可见。
func (h *ResumeHandler) PublishResume(c *gin.Context) {
	h.setPublished(c, true)
}

// UnpublishResume 取消公开。
func (h *ResumeHandler) UnpublishResume(c *gin.Context) {
	h.setPublished(c, false)
}

func (h *ResumeHandler) setPublished(c *gin.Context, published bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	row, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.replyResumeLookupError(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(row).
		Update("published", published).Error; err != nil {
		Internal(c, "failed to update resume")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": row.ID, "published": published})
}

// ViewPublicResume 渲染一份已发布的简历，无需登录。
func (h *ResumeHandler) ViewPublicResume(c *gin.Context) {
	resumeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	ctx := c.Request.Context()
	var row database.Resume
	if err := h.db.WithContext(ctx).
		Where("id = ? AND published = ?", uint(resumeID), true).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
			return
		}
		Internal(c, "failed to query resume")
		return
	}

	doc := resume.New()
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &doc); err != nil {
			Internal(c, "failed to decode resume")
			return
		}
	}

	tpl, err := h.lookupTemplate(ctx, row.TemplateID)
	if err != nil {
		Internal(c, "failed to resolve template")
		return
	}

	html, err := template.Render(doc, tpl)
	if err != nil {
		h.logger.Error("render public resume failed", slog.Any("error", err))
		Internal(c, "failed to render resume")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

type exportRequest struct {
	Format           string          `json:"format" binding:"required"`
	TemplateID       string          `json:"template_id"`
	IncludePhoto     *bool           `json:"include_photo"`
	IncludePortfolio bool            `json:"include_portfolio"`
	PaperSize        string          `json:"paper_size"`
	Quality          string          `json:"quality"`
	Margins          *export.Margins `json:"margins"`
}

// ExportResume 创建导出记录并入队异步导出任务，立即返回 202。
func (h *ResumeHandler) ExportResume(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	format := export.Format(req.Format)
	if !export.ValidFormat(format) {
		BadRequest(c, fmt.Sprintf("unsupported export format %q", req.Format))
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	row, err := h.getResumeForUser(ctx, c.Param("id"), userID)
	if err != nil {
		h.replyResumeLookupError(c, err)
		return
	}

	// 先落盘未保存的编辑，导出读到的是最新文档。
	if err := h.documents.Acquire(ctx, row.ID).Flush(ctx); err != nil {
		Internal(c, "failed to save pending changes")
		return
	}

	templateID := req.TemplateID
	if templateID == "" {
		templateID = row.TemplateID
	}
	opts := export.DefaultOptions(format, templateID)
	if req.IncludePhoto != nil {
		opts.IncludePhoto = *req.IncludePhoto
	}
	opts.IncludePortfolio = req.IncludePortfolio
	if req.PaperSize != "" {
		opts.PaperSize = export.PaperSize(req.PaperSize)
	}
	if req.Quality != "" {
		opts.Quality = export.Quality(req.Quality)
	}
	if req.Margins != nil {
		opts.Margins = *req.Margins
	}

	record := database.ExportRecord{
		ResumeID: row.ID,
		UserID:   userID,
		Format:   string(format),
		Status:   database.ExportStatusPending,
	}
	if err := h.db.WithContext(ctx).Create(&record).Error; err != nil {
		Internal(c, "failed to create export record")
		return
	}

	task, err := tasks.NewResumeExportTask(tasks.ResumeExportPayload{
		ResumeID:      row.ID,
		UserID:        userID,
		RecordID:      record.ID,
		Options:       opts,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.enqueuer.Enqueue(task)
	if err != nil {
		Internal(c, "failed to enqueue export")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"record_id": record.ID,
		"task_id":   info.ID,
	})
}

type exportRecordItem struct {
	ID        uint      `json:"id"`
	Format    string    `json:"format"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListExports 列出简历的导出记录，最近的在前。
func (h *ResumeHandler) ListExports(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	row, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.replyResumeLookupError(c, err)
		return
	}

	var records []database.ExportRecord
	if err := h.db.WithContext(c.Request.Context()).
		Where("resume_id = ? AND user_id = ?", row.ID, userID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		Internal(c, "failed to list exports")
		return
	}

	items := make([]exportRecordItem, 0, len(records))
	for _, r := range records {
		items = append(items, exportRecordItem{
			ID:        r.ID,
			Format:    r.Format,
			Status:    r.Status,
			Error:     r.Error,
			CreatedAt: r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, items)
}

// GetDownloadLink 生成导出产物的预签名下载链接。
func (h *ResumeHandler) GetDownloadLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	recordID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid export id")
		return
	}

	ctx := c.Request.Context()
	var record database.ExportRecord
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(recordID), userID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "export not found")
			return
		}
		Internal(c, "failed to query export")
		return
	}

	if record.Status != database.ExportStatusCompleted || record.ObjectKey == "" {
		Conflict(c, "export not ready")
		return
	}

	filename := h.downloadFilename(ctx, record)
	params := map[string]string{
		"response-content-disposition": fmt.Sprintf("attachment; filename=%q", filename),
	}
	signedURL, err := h.storage.GeneratePresignedURLWithParams(ctx, record.ObjectKey, 5*time.Minute, params)
	if err != nil {
		h.logger.Error("generate download link failed", slog.Any("error", err))
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL, "filename": filename})
}

// downloadFilename 从简历文档推导下载文件名；读不到文档时退回通用名。
func (h *ResumeHandler) downloadFilename(ctx context.Context, record database.ExportRecord) string {
	info := resume.PersonalInfo{}
	var row database.Resume
	if err := h.db.WithContext(ctx).First(&row, record.ResumeID).Error; err == nil && len(row.Data) > 0 {
		var doc resume.Data
		if err := json.Unmarshal(row.Data, &doc); err == nil {
			info = doc.PersonalInfo
		}
	}
	return export.Filename(info, export.Format(record.Format), time.Now())
}

// lookupTemplate 在内置目录与管理端自定义模板中查找模板；
// 找不到时退回内置目录的第一个模板。
func (h *ResumeHandler) lookupTemplate(ctx context.Context, id string) (template.Template, error) {
	catalog, err := loadCatalog(ctx, h.db, h.logger)
	if err != nil {
		return template.Template{}, err
	}
	if tpl, ok := catalog.Find(id); ok {
		return tpl, nil
	}
	return template.Builtin()[0], nil
}

func (h *ResumeHandler) replyResumeLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidResumeID):
		BadRequest(c, "invalid resume id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "resume not found")
	default:
		Internal(c, "failed to query resume")
	}
}

func (h *ResumeHandler) getResumeForUser(ctx context.Context, idParam string, userID uint) (*database.Resume, error) {
	resumeID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidResumeID
	}

	var row database.Resume
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(resumeID), userID).
		First(&row).Error; err != nil {
		return nil, err
	}

	return &row, nil
}

func newResumeResponse(row database.Resume, doc resume.Data) resumeResponse {
	return resumeResponse{
		ID:         row.ID,
		Title:      row.Title,
		TemplateID: row.TemplateID,
		Published:  row.Published,
		Data:       doc,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
