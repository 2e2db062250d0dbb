package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"resumeforge/internal/resume"
	"resumeforge/internal/template"
)

// PhotoFetcher 读取对象存储中的资产字节，用于把头像内联为 data URI。
type PhotoFetcher interface {
	FetchAsset(ctx context.Context, objectKey string) (data []byte, contentType string, err error)
}

// HTMLExporter 生成自包含的 HTML 文档：内联样式、可选内联头像、
// 打印样式覆盖与打印触发脚本。除头像拉取外输出是确定性的。
type HTMLExporter struct {
	photos PhotoFetcher
	logger *slog.Logger
}

// NewHTMLExporter 构造 HTML 导出器；photos 允许为 nil（跳过头像内联）。
func NewHTMLExporter(photos PhotoFetcher, logger *slog.Logger) *HTMLExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTMLExporter{photos: photos, logger: logger}
}

// Export 实现 Exporter。
func (e *HTMLExporter) Export(ctx context.Context, data resume.Data, tpl template.Template, opts Options) ([]byte, error) {
	body, err := template.RenderBody(data, tpl, template.ExportOrder())
	if err != nil {
		return nil, fmt.Errorf("render export body: %w", err)
	}

	photoURI := ""
	if opts.IncludePhoto && data.PersonalInfo.PhotoKey != "" && e.photos != nil {
		photoURI = e.inlinePhoto(ctx, data.PersonalInfo.PhotoKey)
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&sb, "<title>%s Resume</title>\n", data.PersonalInfo.FullName())
	sb.WriteString("<style>\n")
	sb.WriteString(buildCSS(tpl, opts))
	sb.WriteString("</style>\n</head>\n<body>\n")

	if photoURI != "" {
		fmt.Fprintf(&sb, `<div class="resume-photo"><img src="%s" alt="Profile photo"></div>`+"\n", photoURI)
	}

	sb.WriteString(body)
	sb.WriteString("\n<script>if (window.location.search.indexOf('print=1') !== -1) { window.addEventListener('load', function () { window.print(); }); }</script>\n")
	sb.WriteString("</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// inlinePhoto 拉取头像并转为 data URI；失败时记录日志并跳过，不阻断导出。
func (e *HTMLExporter) inlinePhoto(ctx context.Context, objectKey string) string {
	data, contentType, err := e.photos.FetchAsset(ctx, objectKey)
	if err != nil {
		e.logger.Warn("inline profile photo failed, continuing without it",
			slog.String("object_key", objectKey),
			slog.Any("error", err),
		)
		return ""
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}

// buildCSS 由模板配色与字体推导文档样式，并附带打印覆盖规则。
func buildCSS(tpl template.Template, opts Options) string {
	p := tpl.Palette
	var sb strings.Builder

	fmt.Fprintf(&sb, "body { margin: 0; padding: %.2fin %.2fin %.2fin %.2fin; background: %s; color: %s; font-family: '%s', sans-serif; font-size: 10.5pt; line-height: 1.45; }\n",
		opts.Margins.Top, opts.Margins.Right, opts.Margins.Bottom, opts.Margins.Left, p.Background, p.Text, tpl.Fonts.Body)
	fmt.Fprintf(&sb, "h1, h2, .resume-name, .section-title { font-family: '%s', serif; }\n", tpl.Fonts.Heading)
	fmt.Fprintf(&sb, ".resume-name { font-size: 24pt; margin: 0; color: %s; }\n", p.Primary)
	fmt.Fprintf(&sb, ".resume-title { font-size: 13pt; color: %s; margin-top: 2pt; }\n", p.Secondary)
	fmt.Fprintf(&sb, ".resume-contact { font-size: 9pt; color: %s; margin-top: 6pt; }\n", p.Secondary)
	fmt.Fprintf(&sb, ".section-title { font-size: 12pt; color: %s; border-bottom: 1.5px solid %s; padding-bottom: 2pt; margin: 14pt 0 6pt; text-transform: uppercase; letter-spacing: 0.06em; }\n", p.Primary, p.Accent)
	sb.WriteString(".resume-section { break-inside: avoid; }\n")
	sb.WriteString(".entry { margin-bottom: 8pt; }\n")
	sb.WriteString(".entry-head { display: flex; justify-content: space-between; }\n")
	sb.WriteString(".entry-title { font-weight: bold; }\n")
	fmt.Fprintf(&sb, ".entry-dates { color: %s; font-size: 9pt; }\n", p.Secondary)
	fmt.Fprintf(&sb, ".entry-sub { color: %s; font-size: 9.5pt; }\n", p.Secondary)
	sb.WriteString(".entry-body { margin-top: 2pt; }\n")
	fmt.Fprintf(&sb, ".entry-tech { font-size: 9pt; color: %s; }\n", p.Accent)
	sb.WriteString(".skill-group { margin-bottom: 4pt; }\n")
	fmt.Fprintf(&sb, ".skill-category { font-weight: bold; color: %s; margin-right: 6pt; }\n", p.Primary)
	sb.WriteString(".resume-photo img { width: 96px; height: 96px; object-fit: cover; border-radius: 4px; float: right; }\n")

	if tpl.Layout != template.LayoutSingleColumn {
		sb.WriteString(".resume-columns { display: flex; gap: 18pt; }\n")
		sb.WriteString(".resume-main { flex: 2; }\n.resume-side { flex: 1; }\n")
	}

	width, height := opts.PaperSize.Dimensions()
	fmt.Fprintf(&sb, "@page { size: %.2fin %.2fin; margin: 0; }\n", width, height)
	sb.WriteString("@media print { body { -webkit-print-color-adjust: exact; print-color-adjust: exact; } .resume-section { page-break-inside: avoid; } }\n")

	return sb.String()
}
