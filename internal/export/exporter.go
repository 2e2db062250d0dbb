package export

import (
	"context"
	"fmt"
	"log/slog"

	"resumeforge/internal/resume"
	"resumeforge/internal/template"
)

// Exporter 是三种导出格式共享的契约。
// 失败以 error 返回；调用方负责记录日志并决定是否通知用户，不做重试。
type Exporter interface {
	Export(ctx context.Context, data resume.Data, tpl template.Template, opts Options) ([]byte, error)
}

// Pipeline 按格式分发到对应导出器。
type Pipeline struct {
	html *HTMLExporter
	pdf  *PDFExporter
	docx *DOCXExporter
}

// NewPipeline 构造导出管线；photos 允许为 nil。
func NewPipeline(photos PhotoFetcher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	html := NewHTMLExporter(photos, logger)
	return &Pipeline{
		html: html,
		pdf:  NewPDFExporter(html, logger),
		docx: NewDOCXExporter(),
	}
}

// Export 执行一次导出并返回产物字节。
func (p *Pipeline) Export(ctx context.Context, data resume.Data, tpl template.Template, opts Options) ([]byte, error) {
	switch opts.Format {
	case FormatHTML:
		return p.html.Export(ctx, data, tpl, opts)
	case FormatPDF:
		return p.pdf.Export(ctx, data, tpl, opts)
	case FormatDOCX:
		return p.docx.Export(ctx, data, tpl, opts)
	default:
		return nil, fmt.Errorf("unsupported export format %q", opts.Format)
	}
}
