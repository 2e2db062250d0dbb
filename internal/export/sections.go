package export

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"resumeforge/internal/resume"
	"resumeforge/internal/template"
)

// contentBlock 是与格式无关的分区内容中间表示，DOCX 导出直接消费它；
// 分区顺序与 HTML/PDF 使用的 template.ExportOrder 完全一致，保证内容对齐。
type contentBlock struct {
	Title   string
	Entries []entryBlock
}

type entryBlock struct {
	Heading string // 加粗主行
	Meta    string // 日期区间等右侧信息
	Sub     string // 次要行
	Body    string // 纯文本正文
}

var (
	stripPolicy    = bluemonday.StrictPolicy()
	spaceCollapser = regexp.MustCompile(`[ \t]+`)
)

// htmlToPlain 将清洗过的富文本降级为纯文本，供 DOCX 使用。
func htmlToPlain(richHTML string) string {
	text := stripPolicy.Sanitize(richHTML)
	text = html.UnescapeString(text)
	text = spaceCollapser.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func buildContentBlocks(data resume.Data) []contentBlock {
	blocks := make([]contentBlock, 0, 10)

	for _, key := range template.ExportOrder() {
		switch key {
		case template.KeySummary:
			if strings.TrimSpace(data.PersonalInfo.Summary) == "" {
				continue
			}
			blocks = append(blocks, contentBlock{
				Title:   "Professional Summary",
				Entries: []entryBlock{{Body: strings.TrimSpace(data.PersonalInfo.Summary)}},
			})
		case template.KeyExperience:
			if len(data.Experience) == 0 {
				continue
			}
			block := contentBlock{Title: "Professional Experience"}
			for _, e := range data.Experience {
				sub := e.Company
				if e.Location != "" {
					sub += ", " + e.Location
				}
				block.Entries = append(block.Entries, entryBlock{
					Heading: e.Position,
					Meta:    resume.FormatDateRange(e.StartDate, e.EndDate, e.IsCurrent),
					Sub:     sub,
					Body:    htmlToPlain(e.Description),
				})
			}
			blocks = append(blocks, block)
		case template.KeyEducation:
			if len(data.Education) == 0 {
				continue
			}
			block := contentBlock{Title: "Education"}
			for _, e := range data.Education {
				heading := e.Degree
				if e.Field != "" {
					heading += ", " + e.Field
				}
				sub := e.Institution
				if e.GPA != "" {
					sub += " (GPA " + e.GPA + ")"
				}
				block.Entries = append(block.Entries, entryBlock{
					Heading: heading,
					Meta:    resume.FormatDateRange(e.StartDate, e.EndDate, e.IsCurrent),
					Sub:     sub,
					Body:    strings.TrimSpace(e.Description),
				})
			}
			blocks = append(blocks, block)
		case template.KeySkills:
			if len(data.Skills) == 0 {
				continue
			}
			block := contentBlock{Title: "Skills"}
			for _, group := range resume.GroupSkills(data.Skills) {
				names := make([]string, 0, len(group.Skills))
				for _, s := range group.Skills {
					name := s.Name
					if s.Level != "" {
						name += " (" + s.Level + ")"
					}
					names = append(names, name)
				}
				block.Entries = append(block.Entries, entryBlock{
					Heading: group.Category,
					Body:    strings.Join(names, ", "),
				})
			}
			blocks = append(blocks, block)
		case template.KeyProjects:
			if len(data.Projects) == 0 {
				continue
			}
			block := contentBlock{Title: "Projects"}
			for _, p := range data.Projects {
				heading := p.Name
				if p.Role != "" {
					heading += " (" + p.Role + ")"
				}
				body := htmlToPlain(p.Description)
				if p.Technologies != "" {
					if body != "" {
						body += "\n"
					}
					body += "Technologies: " + p.Technologies
				}
				block.Entries = append(block.Entries, entryBlock{
					Heading: heading,
					Meta:    resume.FormatDateRange(p.StartDate, p.EndDate, p.IsCurrent),
					Sub:     p.URL,
					Body:    body,
				})
			}
			blocks = append(blocks, block)
		case template.KeyCertifications:
			if len(data.Certifications) == 0 {
				continue
			}
			block := contentBlock{Title: "Certifications"}
			for _, c := range data.Certifications {
				block.Entries = append(block.Entries, entryBlock{
					Heading: c.Name,
					Meta:    resume.FormatDateRange(c.IssueDate, c.ExpiryDate, false),
					Sub:     c.Issuer,
				})
			}
			blocks = append(blocks, block)
		case template.KeyLanguages:
			if len(data.Languages) == 0 {
				continue
			}
			block := contentBlock{Title: "Languages"}
			for _, l := range data.Languages {
				block.Entries = append(block.Entries, entryBlock{
					Heading: l.Name,
					Sub:     l.Proficiency,
				})
			}
			blocks = append(blocks, block)
		case template.KeyCustom:
			for _, c := range data.CustomSections {
				if strings.TrimSpace(c.Title) == "" && strings.TrimSpace(c.Content) == "" {
					continue
				}
				blocks = append(blocks, contentBlock{
					Title:   c.Title,
					Entries: []entryBlock{{Body: htmlToPlain(c.Content)}},
				})
			}
		case template.KeyReferences:
			if len(data.References) == 0 {
				continue
			}
			block := contentBlock{Title: "References"}
			for _, r := range data.References {
				sub := r.Position
				if r.Company != "" {
					if sub != "" {
						sub += ", "
					}
					sub += r.Company
				}
				contact := r.Email
				if r.Phone != "" {
					if contact != "" {
						contact += " / "
					}
					contact += r.Phone
				}
				block.Entries = append(block.Entries, entryBlock{
					Heading: r.Name,
					Sub:     sub,
					Body:    contact,
				})
			}
			blocks = append(blocks, block)
		}
	}

	return blocks
}
