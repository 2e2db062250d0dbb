package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/errcode"
	"resumeforge/internal/export"
	"resumeforge/internal/metrics"
	"resumeforge/internal/resume"
	"resumeforge/internal/tasks"
)

// ObjectStore 是导出处理器依赖的对象存储操作子集。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	FetchAsset(ctx context.Context, objectKey string) ([]byte, string, error)
}

// notifyPublisher 覆盖 *redis.Client 的发布方法，测试替换为假实现。
type notifyPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// ExportTaskHandler 消费简历导出任务：渲染产物、上传对象存储、
// 更新导出记录并通过 Redis 通知用户。导出失败不重试，只上报。
type ExportTaskHandler struct {
	db        *gorm.DB
	store     ObjectStore
	publisher notifyPublisher
	pipeline  *export.Pipeline
	logger    *slog.Logger
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(db *gorm.DB, store ObjectStore, publisher notifyPublisher, logger *slog.Logger) *ExportTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportTaskHandler{
		db:        db,
		store:     store,
		publisher: publisher,
		pipeline:  export.NewPipeline(store, logger),
		logger:    logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	var payload tasks.ResumeExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal export payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("resume_id", uint64(payload.ResumeID)),
		slog.String("format", string(payload.Options.Format)),
	)
	log.Info("starting resume export task")

	var row database.Resume
	if err := h.db.WithContext(ctx).First(&row, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	doc := resume.New()
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &doc); err != nil {
			return h.fail(ctx, log, payload, fmt.Errorf("decode resume data: %w", err))
		}
	}

	templateID := payload.Options.TemplateID
	if templateID == "" {
		templateID = row.TemplateID
	}
	tpl, err := resolveTemplate(ctx, h.db, templateID)
	if err != nil {
		return h.fail(ctx, log, payload, err)
	}

	start := time.Now()
	artifact, err := h.pipeline.Export(ctx, doc, tpl, payload.Options)
	metrics.ObserveExport(string(payload.Options.Format), err, time.Since(start))
	if err != nil {
		return h.fail(ctx, log, payload, fmt.Errorf("run export: %w", err))
	}

	objectKey := fmt.Sprintf("exports/%d/%s.%s", row.UserID, uuid.NewString(), payload.Options.Format)
	contentType := export.ContentType(payload.Options.Format)
	if err := h.store.UploadFile(ctx, objectKey, bytes.NewReader(artifact), int64(len(artifact)), contentType); err != nil {
		return h.fail(ctx, log, payload, fmt.Errorf("upload artifact: %w", err))
	}

	update := map[string]any{
		"object_key": objectKey,
		"status":     database.ExportStatusCompleted,
		"error":      "",
	}
	if err := h.db.WithContext(ctx).
		Model(&database.ExportRecord{}).
		Where("id = ?", payload.RecordID).
		Updates(update).Error; err != nil {
		log.Error("update export record failed", slog.Any("error", err))
		return err
	}

	notify := ExportNotifyMessage{
		Status:        "completed",
		ResumeID:      row.ID,
		RecordID:      payload.RecordID,
		Format:        string(payload.Options.Format),
		ObjectKey:     objectKey,
		Filename:      export.Filename(doc.PersonalInfo, payload.Options.Format, time.Now()),
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := h.publish(ctx, row.UserID, notify); err != nil {
		log.Error("publish export notification failed", slog.Any("error", err))
		return err
	}

	log.Info("resume export task completed")
	return nil
}

// fail 标记导出记录失败并通知用户；返回 nil 使任务不再重试。
func (h *ExportTaskHandler) fail(ctx context.Context, log *slog.Logger, payload tasks.ResumeExportPayload, cause error) error {
	log.Error("resume export failed", slog.Any("error", cause))

	update := map[string]any{
		"status": database.ExportStatusFailed,
		"error":  strings.TrimSpace(cause.Error()),
	}
	if err := h.db.WithContext(ctx).
		Model(&database.ExportRecord{}).
		Where("id = ?", payload.RecordID).
		Updates(update).Error; err != nil {
		log.Error("mark export record failed", slog.Any("error", err))
	}

	notify := ExportNotifyMessage{
		Status:        "error",
		ResumeID:      payload.ResumeID,
		RecordID:      payload.RecordID,
		Format:        string(payload.Options.Format),
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.SystemError,
		ErrorMessage:  strings.TrimSpace(cause.Error()),
	}
	if err := h.publish(ctx, payload.UserID, notify); err != nil {
		log.Error("publish export error notification failed", slog.Any("error", err))
	}
	return nil
}

func (h *ExportTaskHandler) publish(ctx context.Context, userID uint, notify ExportNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.publisher.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
