package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	docx "github.com/fumiama/go-docx"

	"resumeforge/internal/resume"
	"resumeforge/internal/template"
)

// DOCX 字号使用半磅（half-point）表示。
const (
	docxSizeName    = "52" // 26pt
	docxSizeTitle   = "26" // 13pt
	docxSizeHeading = "24" // 12pt
	docxSizeBody    = "21" // 10.5pt
	docxSizeSub     = "19" // 9.5pt
)

// DOCXExporter 构造 Office Open XML 文档树：段落与文本 Run 逐一对应
// 导出内容块，模板配色转为 OOXML 十六进制色值，字体对以正文字体为代表。
type DOCXExporter struct{}

// NewDOCXExporter 构造 DOCX 导出器。
func NewDOCXExporter() *DOCXExporter {
	return &DOCXExporter{}
}

// Export 实现 Exporter。
func (e *DOCXExporter) Export(_ context.Context, data resume.Data, tpl template.Template, _ Options) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	primary := docxColor(tpl.Palette.Primary)
	secondary := docxColor(tpl.Palette.Secondary)
	text := docxColor(tpl.Palette.Text)
	bodyFont := representativeFont(tpl.Fonts)

	// 头部：姓名、头衔、联系方式
	name := doc.AddParagraph()
	name.AddText(data.PersonalInfo.FullName()).Size(docxSizeName).Color(primary).Bold().Font(bodyFont, "", bodyFont, "")
	name.Justification("center")

	if strings.TrimSpace(data.PersonalInfo.Title) != "" {
		title := doc.AddParagraph()
		title.AddText(data.PersonalInfo.Title).Size(docxSizeTitle).Color(secondary).Font(bodyFont, "", bodyFont, "")
		title.Justification("center")
	}

	if contact := contactLine(data.PersonalInfo); contact != "" {
		line := doc.AddParagraph()
		line.AddText(contact).Size(docxSizeSub).Color(secondary).Font(bodyFont, "", bodyFont, "")
		line.Justification("center")
	}

	for _, block := range buildContentBlocks(data) {
		heading := doc.AddParagraph()
		heading.AddText(strings.ToUpper(block.Title)).Size(docxSizeHeading).Color(primary).Bold().Font(bodyFont, "", bodyFont, "")

		for _, entry := range block.Entries {
			if entry.Heading != "" {
				head := doc.AddParagraph()
				run := head.AddText(entry.Heading)
				run.Size(docxSizeBody).Color(text).Bold().Font(bodyFont, "", bodyFont, "")
				if entry.Meta != "" {
					head.AddText("  |  " + entry.Meta).Size(docxSizeSub).Color(secondary).Font(bodyFont, "", bodyFont, "")
				}
			}
			if entry.Sub != "" {
				sub := doc.AddParagraph()
				sub.AddText(entry.Sub).Size(docxSizeSub).Color(secondary).Italic().Font(bodyFont, "", bodyFont, "")
			}
			if entry.Body != "" {
				for _, line := range strings.Split(entry.Body, "\n") {
					if strings.TrimSpace(line) == "" {
						continue
					}
					body := doc.AddParagraph()
					body.AddText(line).Size(docxSizeBody).Color(text).Font(bodyFont, "", bodyFont, "")
				}
			}
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

// docxColor 把 CSS 十六进制色转为 OOXML 表示（去掉 # 并大写）。
func docxColor(hex string) string {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		// 简写形式展开，如 #abc -> AABBCC
		expanded := make([]byte, 0, 6)
		for i := 0; i < 3; i++ {
			expanded = append(expanded, hex[i], hex[i])
		}
		hex = string(expanded)
	}
	if len(hex) != 6 {
		return "000000"
	}
	return strings.ToUpper(hex)
}

// representativeFont 将字体对折算为单一 Run 字体，优先正文字体。
func representativeFont(fonts template.FontPair) string {
	if strings.TrimSpace(fonts.Body) != "" {
		return fonts.Body
	}
	if strings.TrimSpace(fonts.Heading) != "" {
		return fonts.Heading
	}
	return "Calibri"
}

func contactLine(info resume.PersonalInfo) string {
	parts := make([]string, 0, 6)
	for _, c := range []string{info.Email, info.Phone, info.City, info.LinkedIn, info.GitHub, info.Website} {
		if strings.TrimSpace(c) != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "  |  ")
}
