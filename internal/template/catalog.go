package template

// Category 枚举模板的视觉风格分类，渲染分发以此为准。
type Category string

const (
	CategoryTraditional Category = "traditional"
	CategoryModern      Category = "modern"
	CategoryCreative    Category = "creative"
	CategoryTechnical   Category = "technical"
	CategoryExecutive   Category = "executive"
)

// Categories 返回全部已知分类，顺序固定。
func Categories() []Category {
	return []Category{
		CategoryTraditional,
		CategoryModern,
		CategoryCreative,
		CategoryTechnical,
		CategoryExecutive,
	}
}

// ValidCategory 判断 c 是否为已知分类。
func ValidCategory(c Category) bool {
	for _, known := range Categories() {
		if known == c {
			return true
		}
	}
	return false
}

// Layout 枚举栏式布局。
type Layout string

const (
	LayoutSingleColumn Layout = "single"
	LayoutTwoColumn    Layout = "two"
	LayoutThreeColumn  Layout = "three"
)

// ValidLayout 判断 l 是否为已知布局。
func ValidLayout(l Layout) bool {
	switch l {
	case LayoutSingleColumn, LayoutTwoColumn, LayoutThreeColumn:
		return true
	}
	return false
}

// Palette 是模板的五色配色。
type Palette struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Text       string `json:"text"`
	Background string `json:"background"`
}

// FontPair 是标题字体与正文字体。
type FontPair struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Capabilities 标记模板支持的输出场景。
type Capabilities struct {
	Print   bool `json:"print"`
	Mobile  bool `json:"mobile"`
	ChatApp bool `json:"chat_app"`
}

// Template 是模板目录中的一条只读条目。
// 内置目录在编译期固定；管理端追加的自定义模板与内置目录做并集。
type Template struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Category     Category     `json:"category"`
	Palette      Palette      `json:"palette"`
	Fonts        FontPair     `json:"fonts"`
	Layout       Layout       `json:"layout"`
	Capabilities Capabilities `json:"capabilities"`
	PreviewKey   string       `json:"preview_key,omitempty"`
}

// Builtin 返回内置模板目录。
func Builtin() []Template {
	return []Template{
		{
			ID: "classic-chronological", Name: "Classic Chronological",
			Category: CategoryTraditional, Layout: LayoutSingleColumn,
			Palette:      Palette{Primary: "#1f2937", Secondary: "#4b5563", Accent: "#2563eb", Text: "#111827", Background: "#ffffff"},
			Fonts:        FontPair{Heading: "Georgia", Body: "Times New Roman"},
			Capabilities: Capabilities{Print: true, Mobile: true, ChatApp: true},
		},
		{
			ID: "formal-serif", Name: "Formal Serif",
			Category: CategoryTraditional, Layout: LayoutTwoColumn,
			Palette:      Palette{Primary: "#374151", Secondary: "#6b7280", Accent: "#7c2d12", Text: "#1f2937", Background: "#fefce8"},
			Fonts:        FontPair{Heading: "Garamond", Body: "Georgia"},
			Capabilities: Capabilities{Print: true, Mobile: false, ChatApp: false},
		},
		{
			ID: "clean-slate", Name: "Clean Slate",
			Category: CategoryModern, Layout: LayoutTwoColumn,
			Palette:      Palette{Primary: "#0f172a", Secondary: "#475569", Accent: "#0ea5e9", Text: "#0f172a", Background: "#ffffff"},
			Fonts:        FontPair{Heading: "Helvetica Neue", Body: "Arial"},
			Capabilities: Capabilities{Print: true, Mobile: true, ChatApp: true},
		},
		{
			ID: "minimal-mono", Name: "Minimal Mono",
			Category: CategoryModern, Layout: LayoutSingleColumn,
			Palette:      Palette{Primary: "#18181b", Secondary: "#52525b", Accent: "#22c55e", Text: "#18181b", Background: "#fafafa"},
			Fonts:        FontPair{Heading: "Inter", Body: "Inter"},
			Capabilities: Capabilities{Print: true, Mobile: true, ChatApp: true},
		},
		{
			ID: "studio-splash", Name: "Studio Splash",
			Category: CategoryCreative, Layout: LayoutThreeColumn,
			Palette:      Palette{Primary: "#7e22ce", Secondary: "#a855f7", Accent: "#f59e0b", Text: "#1c1917", Background: "#fdf4ff"},
			Fonts:        FontPair{Heading: "Futura", Body: "Avenir"},
			Capabilities: Capabilities{Print: false, Mobile: true, ChatApp: true},
		},
		{
			ID: "portfolio-first", Name: "Portfolio First",
			Category: CategoryCreative, Layout: LayoutTwoColumn,
			Palette:      Palette{Primary: "#be185d", Secondary: "#ec4899", Accent: "#14b8a6", Text: "#27272a", Background: "#ffffff"},
			Fonts:        FontPair{Heading: "Poppins", Body: "Lato"},
			Capabilities: Capabilities{Print: true, Mobile: true, ChatApp: true},
		},
		{
			ID: "terminal-green", Name: "Terminal Green",
			Category: CategoryTechnical, Layout: LayoutTwoColumn,
			Palette:      Palette{Primary: "#052e16", Secondary: "#166534", Accent: "#22c55e", Text: "#14532d", Background: "#f0fdf4"},
			Fonts:        FontPair{Heading: "JetBrains Mono", Body: "Source Code Pro"},
			Capabilities: Capabilities{Print: true, Mobile: true, ChatApp: false},
		},
		{
			ID: "stack-overview", Name: "Stack Overview",
			Category: CategoryTechnical, Layout: LayoutSingleColumn,
			Palette:      Palette{Primary: "#1e3a8a", Secondary: "#3b82f6", Accent: "#f97316", Text: "#1e293b", Background: "#ffffff"},
			Fonts:        FontPair{Heading: "Roboto", Body: "Roboto"},
			Capabilities: Capabilities{Print: true, Mobile: true, ChatApp: true},
		},
		{
			ID: "boardroom", Name: "Boardroom",
			Category: CategoryExecutive, Layout: LayoutSingleColumn,
			Palette:      Palette{Primary: "#111827", Secondary: "#374151", Accent: "#b45309", Text: "#111827", Background: "#ffffff"},
			Fonts:        FontPair{Heading: "Didot", Body: "Garamond"},
			Capabilities: Capabilities{Print: true, Mobile: false, ChatApp: false},
		},
		{
			ID: "corner-office", Name: "Corner Office",
			Category: CategoryExecutive, Layout: LayoutTwoColumn,
			Palette:      Palette{Primary: "#0c4a6e", Secondary: "#0369a1", Accent: "#ca8a04", Text: "#0f172a", Background: "#f8fafc"},
			Fonts:        FontPair{Heading: "Baskerville", Body: "Georgia"},
			Capabilities: Capabilities{Print: true, Mobile: true, ChatApp: false},
		},
	}
}

// Catalog 聚合内置模板与管理端自定义模板。
type Catalog struct {
	builtin []Template
	custom  []Template
}

// NewCatalog 创建目录；custom 允许为空。
func NewCatalog(custom []Template) *Catalog {
	return &Catalog{builtin: Builtin(), custom: custom}
}

// All 返回内置与自定义模板的并集，内置在前。
func (c *Catalog) All() []Template {
	all := make([]Template, 0, len(c.builtin)+len(c.custom))
	all = append(all, c.builtin...)
	all = append(all, c.custom...)
	return all
}

// Find 按 ID 查找模板。
func (c *Catalog) Find(id string) (Template, bool) {
	for _, t := range c.All() {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}
