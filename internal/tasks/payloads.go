package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"resumeforge/internal/export"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeResumeExport    = "resume:export"
	TypeTemplatePreview = "template:preview"
)

// ResumeExportPayload 描述一次简历导出所需的全部信息。
type ResumeExportPayload struct {
	ResumeID      uint           `json:"resume_id"`
	UserID        uint           `json:"user_id"`
	RecordID      uint           `json:"record_id"`
	Options       export.Options `json:"options"`
	CorrelationID string         `json:"correlation_id"`
}

// NewResumeExportTask 构造一个简历导出任务。
// 导出失败不重试，失败通过通知通道上报。
func NewResumeExportTask(payload ResumeExportPayload) (*asynq.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResumeExport, raw, asynq.MaxRetry(0)), nil
}

// TemplatePreviewPayload 描述一次模板预览图生成任务。
type TemplatePreviewPayload struct {
	TemplateID    string `json:"template_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewTemplatePreviewTask 构造一个模板预览图生成任务。
func NewTemplatePreviewTask(templateID, correlationID string) (*asynq.Task, error) {
	raw, err := json.Marshal(TemplatePreviewPayload{
		TemplateID:    templateID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTemplatePreview, raw), nil
}
