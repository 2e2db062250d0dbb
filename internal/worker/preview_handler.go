package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/export"
	"resumeforge/internal/resume"
	"resumeforge/internal/tasks"
)

// TemplatePreviewHandler 负责模板缩略图生成任务：
// 用样例简历渲染模板，截图上传并回写模板的预览对象键。
type TemplatePreviewHandler struct {
	db     *gorm.DB
	store  ObjectStore
	logger *slog.Logger
}

func NewTemplatePreviewHandler(db *gorm.DB, store ObjectStore, logger *slog.Logger) *TemplatePreviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplatePreviewHandler{db: db, store: store, logger: logger}
}

// ProcessTask 实现 asynq.Handler。
func (h *TemplatePreviewHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	var payload tasks.TemplatePreviewPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal template preview payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("template_id", payload.TemplateID),
		slog.String("correlation_id", payload.CorrelationID),
	)
	log.Info("starting template preview task")

	tpl, err := resolveTemplate(ctx, h.db, payload.TemplateID)
	if err != nil {
		log.Error("resolve template failed", slog.Any("error", err))
		return err
	}

	exporter := export.NewHTMLExporter(nil, h.logger)
	opts := export.DefaultOptions(export.FormatHTML, tpl.ID)
	opts.IncludePhoto = false
	htmlBytes, err := exporter.Export(ctx, previewSample(), tpl, opts)
	if err != nil {
		log.Error("render preview html failed", slog.Any("error", err))
		return err
	}

	const previewQuality = 80
	previewBytes, err := captureHTMLScreenshot(string(htmlBytes), previewQuality)
	if err != nil {
		log.Error("capture template screenshot failed", slog.Any("error", err))
		return err
	}

	objectKey := fmt.Sprintf("thumbnails/template/%s/preview.jpg", tpl.ID)
	if err := h.store.UploadFile(ctx, objectKey, bytes.NewReader(previewBytes), int64(len(previewBytes)), "image/jpeg"); err != nil {
		log.Error("upload template preview failed", slog.Any("error", err))
		return err
	}

	// 内置模板没有数据库行，预览键固定可推导，跳过回写
	result := h.db.WithContext(ctx).
		Model(&database.Template{}).
		Where("template_id = ?", tpl.ID).
		Update("preview_key", objectKey)
	if result.Error != nil {
		log.Error("update template preview key failed", slog.Any("error", result.Error))
		return result.Error
	}

	log.Info("template preview task completed")
	return nil
}

// previewSample 返回用于模板预览的样例简历。
func previewSample() resume.Data {
	doc := resume.New()
	doc.PersonalInfo = resume.PersonalInfo{
		FirstName: "Alex",
		LastName:  "Morgan",
		Title:     "Senior Software Engineer",
		Email:     "alex.morgan@example.com",
		Phone:     "+1 555 0100",
		City:      "Berlin",
		Summary:   "Engineer with ten years of experience building data-intensive backend services.",
	}
	doc.Experience = []resume.Experience{
		{
			ID: "exp-1", Company: "Northwind Labs", Position: "Senior Software Engineer",
			Location: "Berlin", StartDate: "2021-03", IsCurrent: true,
			Description: "<p>Leads the storage platform team.</p>",
		},
		{
			ID: "exp-2", Company: "Contoso", Position: "Software Engineer",
			StartDate: "2016-06", EndDate: "2021-02",
			Description: "<p>Built the billing pipeline.</p>",
		},
	}
	doc.Education = []resume.Education{
		{ID: "edu-1", Institution: "TU Berlin", Degree: "M.Sc.", Field: "Computer Science", StartDate: "2014-10", EndDate: "2016-05"},
	}
	doc.Skills = []resume.Skill{
		{ID: "sk-1", Name: "Go", Category: "Languages", Level: "Expert"},
		{ID: "sk-2", Name: "SQL", Category: "Languages"},
		{ID: "sk-3", Name: "Kubernetes", Category: "Infrastructure"},
	}
	doc.Languages = []resume.Language{
		{ID: "lang-1", Name: "English", Proficiency: "Fluent"},
		{ID: "lang-2", Name: "German", Proficiency: "Native"},
	}
	return doc
}
