package template

import (
	"fmt"
	htmltemplate "html/template"
	"strings"

	"resumeforge/internal/resume"
)

// 渲染分区的标识。custom_sections 在展开后使用条目自身的标题。
const (
	KeySummary        = "summary"
	KeyExperience     = "experience"
	KeyEducation      = "education"
	KeySkills         = "skills"
	KeyProjects       = "projects"
	KeyCertifications = "certifications"
	KeyLanguages      = "languages"
	KeyCustom         = "custom_sections"
	KeyReferences     = "references"
)

// ExportOrder 是三种导出格式共用的内容顺序，保证跨格式内容一致。
func ExportOrder() []string {
	return []string{
		KeySummary,
		KeyExperience,
		KeyEducation,
		KeySkills,
		KeyProjects,
		KeyCertifications,
		KeyLanguages,
		KeyCustom,
		KeyReferences,
	}
}

// CategoryOrder 返回预览布局中各分类的固定分区顺序，用户不可配置。
func CategoryOrder(c Category) []string {
	switch c {
	case CategoryTraditional:
		return []string{KeySummary, KeyExperience, KeyEducation, KeySkills, KeyProjects, KeyCertifications, KeyLanguages, KeyCustom, KeyReferences}
	case CategoryModern:
		return []string{KeySummary, KeySkills, KeyExperience, KeyProjects, KeyEducation, KeyCertifications, KeyLanguages, KeyCustom, KeyReferences}
	case CategoryCreative:
		return []string{KeySummary, KeyProjects, KeySkills, KeyExperience, KeyEducation, KeyCustom, KeyCertifications, KeyLanguages, KeyReferences}
	case CategoryTechnical:
		return []string{KeySummary, KeySkills, KeyProjects, KeyExperience, KeyEducation, KeyCertifications, KeyCustom, KeyLanguages, KeyReferences}
	case CategoryExecutive:
		return []string{KeySummary, KeyExperience, KeyEducation, KeyCertifications, KeyProjects, KeySkills, KeyLanguages, KeyCustom, KeyReferences}
	default:
		return ExportOrder()
	}
}

// Section 是一个已渲染的简历分区。
type Section struct {
	Key   string
	Title string
	Body  htmltemplate.HTML
}

var sectionTmpl = htmltemplate.Must(htmltemplate.New("sections").Funcs(htmltemplate.FuncMap{
	"dateRange": resume.FormatDateRange,
	// richtext 字段在表单提交时已经过 bluemonday 清洗。
	"safeHTML": func(s string) htmltemplate.HTML { return htmltemplate.HTML(s) },
}).Parse(sectionTemplates))

const sectionTemplates = `
{{define "summary"}}<p class="summary">{{.}}</p>{{end}}

{{define "experience"}}{{range .}}<div class="entry">
<div class="entry-head"><span class="entry-title">{{.Position}}</span><span class="entry-dates">{{dateRange .StartDate .EndDate .IsCurrent}}</span></div>
<div class="entry-sub">{{.Company}}{{if .Location}} &middot; {{.Location}}{{end}}</div>
{{if .Description}}<div class="entry-body">{{safeHTML .Description}}</div>{{end}}
</div>{{end}}{{end}}

{{define "education"}}{{range .}}<div class="entry">
<div class="entry-head"><span class="entry-title">{{.Degree}}{{if .Field}}, {{.Field}}{{end}}</span><span class="entry-dates">{{dateRange .StartDate .EndDate .IsCurrent}}</span></div>
<div class="entry-sub">{{.Institution}}{{if .GPA}} &middot; GPA {{.GPA}}{{end}}</div>
{{if .Description}}<div class="entry-body">{{.Description}}</div>{{end}}
</div>{{end}}{{end}}

{{define "skills"}}{{range .}}<div class="skill-group">
<span class="skill-category">{{.Category}}</span>
<span class="skill-items">{{range $i, $s := .Skills}}{{if $i}}, {{end}}{{$s.Name}}{{if $s.Level}} ({{$s.Level}}){{end}}{{end}}</span>
</div>{{end}}{{end}}

{{define "projects"}}{{range .}}<div class="entry">
<div class="entry-head"><span class="entry-title">{{.Name}}{{if .Role}} &middot; {{.Role}}{{end}}</span><span class="entry-dates">{{dateRange .StartDate .EndDate .IsCurrent}}</span></div>
{{if .URL}}<div class="entry-sub">{{.URL}}</div>{{end}}
{{if .Description}}<div class="entry-body">{{safeHTML .Description}}</div>{{end}}
{{if .Technologies}}<div class="entry-tech">{{.Technologies}}</div>{{end}}
</div>{{end}}{{end}}

{{define "certifications"}}{{range .}}<div class="entry">
<div class="entry-head"><span class="entry-title">{{.Name}}</span><span class="entry-dates">{{dateRange .IssueDate .ExpiryDate false}}</span></div>
{{if .Issuer}}<div class="entry-sub">{{.Issuer}}</div>{{end}}
</div>{{end}}{{end}}

{{define "languages"}}{{range .}}<div class="entry entry-inline">
<span class="entry-title">{{.Name}}</span>{{if .Proficiency}}<span class="entry-sub"> {{.Proficiency}}</span>{{end}}
</div>{{end}}{{end}}

{{define "references"}}{{range .}}<div class="entry">
<div class="entry-head"><span class="entry-title">{{.Name}}</span></div>
<div class="entry-sub">{{.Position}}{{if .Company}}, {{.Company}}{{end}}</div>
{{if .Email}}<div class="entry-contact">{{.Email}}{{if .Phone}} &middot; {{.Phone}}{{end}}</div>{{end}}
</div>{{end}}{{end}}

{{define "custom"}}<div class="entry-body">{{safeHTML .Content}}</div>{{end}}

{{define "header"}}<header class="resume-header">
<h1 class="resume-name">{{.FullName}}</h1>
{{if .Title}}<div class="resume-title">{{.Title}}</div>{{end}}
<div class="resume-contact">{{range $i, $c := .Contacts}}{{if $i}} &middot; {{end}}<span>{{$c}}</span>{{end}}</div>
</header>{{end}}
`

// BuildSections 按 order 生成全部非空分区；空分区被跳过，
// custom_sections 在其位置展开为逐条分区。
func BuildSections(data resume.Data, order []string) ([]Section, error) {
	sections := make([]Section, 0, len(order))
	for _, key := range order {
		switch key {
		case KeySummary:
			if strings.TrimSpace(data.PersonalInfo.Summary) == "" {
				continue
			}
			body, err := execSection("summary", data.PersonalInfo.Summary)
			if err != nil {
				return nil, err
			}
			sections = append(sections, Section{Key: key, Title: "Professional Summary", Body: body})
		case KeyExperience:
			if len(data.Experience) == 0 {
				continue
			}
			body, err := execSection("experience", data.Experience)
			if err != nil {
				return nil, err
			}
			sections = append(sections, Section{Key: key, Title: "Professional Experience", Body: body})
		case KeyEducation:
			if len(data.Education) == 0 {
				continue
			}
			body, err := execSection("education", data.Education)
			if err != nil {
				return nil, err
			}
			sections = append(sections, Section{Key: key, Title: "Education", Body: body})
		case KeySkills:
			if len(data.Skills) == 0 {
				continue
			}
			body, err := execSection("skills", resume.GroupSkills(data.Skills))
			if err != nil {
				return nil, err
			}
			sections = append(sections, Section{Key: key, Title: "Skills", Body: body})
		case KeyProjects:
			if len(data.Projects) == 0 {
				continue
			}
			body, err := execSection("projects", data.Projects)
			if err != nil {
				return nil, err
			}
			sections = append(sections, Section{Key: key, Title: "Projects", Body: body})
		case KeyCertifications:
			if len(data.Certifications) == 0 {
				continue
			}
			body, err := execSection("certifications", data.Certifications)
			if err != nil {
				return nil, err
			}
			sections = append(sections, Section{Key: key, Title: "Certifications", Body: body})
		case KeyLanguages:
			if len(data.Languages) == 0 {
				continue
			}
			body, err := execSection("languages", data.Languages)
			if err != nil {
				return nil, err
			}
			sections = append(sections, Section{Key: key, Title: "Languages", Body: body})
		case KeyCustom:
			for _, custom := range data.CustomSections {
				if strings.TrimSpace(custom.Title) == "" && strings.TrimSpace(custom.Content) == "" {
					continue
				}
				body, err := execSection("custom", custom)
				if err != nil {
					return nil, err
				}
				sections = append(sections, Section{Key: key, Title: custom.Title, Body: body})
			}
		case KeyReferences:
			if len(data.References) == 0 {
				continue
			}
			body, err := execSection("references", data.References)
			if err != nil {
				return nil, err
			}
			sections = append(sections, Section{Key: key, Title: "References", Body: body})
		default:
			return nil, fmt.Errorf("unknown render section %q", key)
		}
	}
	return sections, nil
}

func execSection(name string, payload any) (htmltemplate.HTML, error) {
	var sb strings.Builder
	if err := sectionTmpl.ExecuteTemplate(&sb, name, payload); err != nil {
		return "", fmt.Errorf("render section %s: %w", name, err)
	}
	return htmltemplate.HTML(sb.String()), nil
}

type headerView struct {
	FullName string
	Title    string
	Contacts []string
}

// HeaderHTML 渲染简历头部（姓名、头衔、联系方式一行）。
func HeaderHTML(info resume.PersonalInfo) (htmltemplate.HTML, error) {
	contacts := make([]string, 0, 6)
	for _, c := range []string{info.Email, info.Phone, info.City, info.LinkedIn, info.GitHub, info.Website} {
		if strings.TrimSpace(c) != "" {
			contacts = append(contacts, c)
		}
	}
	var sb strings.Builder
	if err := sectionTmpl.ExecuteTemplate(&sb, "header", headerView{
		FullName: info.FullName(),
		Title:    info.Title,
		Contacts: contacts,
	}); err != nil {
		return "", fmt.Errorf("render header: %w", err)
	}
	return htmltemplate.HTML(sb.String()), nil
}

// 两栏/三栏布局中进入侧栏的分区。
var sidebarKeys = map[string]bool{
	KeySkills:         true,
	KeyLanguages:      true,
	KeyCertifications: true,
}

// Render 将文档渲染为预览用的 HTML 片段，按模板分类分发布局逻辑。
func Render(data resume.Data, tpl Template) (string, error) {
	if !ValidCategory(tpl.Category) {
		return "", fmt.Errorf("unknown template category %q", tpl.Category)
	}

	return RenderBody(data, tpl, CategoryOrder(tpl.Category))
}

// RenderBody 以给定的分区顺序渲染文档主体。
// 导出管线使用 ExportOrder 调用以保证跨格式内容一致；预览使用分类顺序。
func RenderBody(data resume.Data, tpl Template, order []string) (string, error) {
	sections, err := BuildSections(data, order)
	if err != nil {
		return "", err
	}
	header, err := HeaderHTML(data.PersonalInfo)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<div class="resume resume--%s layout-%s">`, tpl.Category, tpl.Layout)
	sb.WriteString(string(header))

	switch tpl.Layout {
	case LayoutTwoColumn, LayoutThreeColumn:
		main, side := splitColumns(sections)
		sb.WriteString(`<div class="resume-columns">`)
		writeColumn(&sb, "resume-main", main)
		writeColumn(&sb, "resume-side", side)
		sb.WriteString(`</div>`)
	default:
		writeColumn(&sb, "resume-main", sections)
	}

	sb.WriteString(`</div>`)
	return sb.String(), nil
}

func splitColumns(sections []Section) (main, side []Section) {
	for _, s := range sections {
		if sidebarKeys[s.Key] {
			side = append(side, s)
			continue
		}
		main = append(main, s)
	}
	return main, side
}

func writeColumn(sb *strings.Builder, class string, sections []Section) {
	fmt.Fprintf(sb, `<div class="%s">`, class)
	for _, s := range sections {
		fmt.Fprintf(sb, `<section class="resume-section resume-section--%s">`, s.Key)
		if s.Title != "" {
			fmt.Fprintf(sb, `<h2 class="section-title">%s</h2>`, htmltemplate.HTMLEscapeString(s.Title))
		}
		sb.WriteString(string(s.Body))
		sb.WriteString(`</section>`)
	}
	sb.WriteString(`</div>`)
}
