package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"resumeforge/internal/resume"
)

// Format 枚举导出格式。
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ValidFormat 判断 f 是否为受支持的导出格式。
func ValidFormat(f Format) bool {
	switch f {
	case FormatHTML, FormatPDF, FormatDOCX:
		return true
	}
	return false
}

// ContentType 返回格式对应的 MIME 类型。
func ContentType(f Format) string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/html; charset=utf-8"
	}
}

// PaperSize 枚举 PDF 纸张尺寸。
type PaperSize string

const (
	PaperA4     PaperSize = "a4"
	PaperLetter PaperSize = "letter"
	PaperLegal  PaperSize = "legal"
)

// Dimensions 返回纸张宽高（英寸）。未知尺寸按 A4 处理。
func (p PaperSize) Dimensions() (width, height float64) {
	switch p {
	case PaperLetter:
		return 8.5, 11
	case PaperLegal:
		return 8.5, 14
	default:
		return 8.27, 11.69
	}
}

// Quality 枚举 PDF 渲染质量，决定栅格缩放倍率。
type Quality string

const (
	QualityStandard Quality = "standard"
	QualityHigh     Quality = "high"
	QualityPrint    Quality = "print"
)

// Scale 返回质量对应的缩放倍率。
func (q Quality) Scale() float64 {
	switch q {
	case QualityHigh:
		return 1.5
	case QualityPrint:
		return 2.0
	default:
		return 1.0
	}
}

// Margins 是页边距（英寸）。
type Margins struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// Options 描述一次导出请求；每次导出单独构造，不随文档持久化。
type Options struct {
	Format           Format    `json:"format"`
	TemplateID       string    `json:"template_id"`
	IncludePhoto     bool      `json:"include_photo"`
	IncludePortfolio bool      `json:"include_portfolio"`
	PaperSize        PaperSize `json:"paper_size"`
	Margins          Margins   `json:"margins"`
	Quality          Quality   `json:"quality"`
}

// DefaultOptions 返回指定格式的默认导出选项。
func DefaultOptions(format Format, templateID string) Options {
	return Options{
		Format:       format,
		TemplateID:   templateID,
		IncludePhoto: true,
		PaperSize:    PaperA4,
		Margins:      Margins{Top: 0.5, Bottom: 0.5, Left: 0.5, Right: 0.5},
		Quality:      QualityStandard,
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename 生成下载文件名：{FirstName}_{LastName}_Resume_{ISO 日期}.{ext}。
func Filename(info resume.PersonalInfo, format Format, now time.Time) string {
	first := sanitizeFilenamePart(info.FirstName)
	last := sanitizeFilenamePart(info.LastName)
	if first == "" {
		first = "My"
	}
	if last == "" {
		last = "Resume"
	}
	return fmt.Sprintf("%s_%s_Resume_%s.%s", first, last, now.Format("2006-01-02"), format)
}

func sanitizeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	return s
}
