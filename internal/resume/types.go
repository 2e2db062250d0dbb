package resume

// Data 表示存储在简历 Content(JSONB) 中的结构化数据。
// 一份文档由一个 PersonalInfo 与若干列表分区组成；列表条目的 ID 在各自列表内唯一。
type Data struct {
	PersonalInfo   PersonalInfo    `json:"personal_info"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Skills         []Skill         `json:"skills"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
	Languages      []Language      `json:"languages"`
	References     []Reference     `json:"references"`
	CustomSections []CustomSection `json:"custom_sections"`
}

// PersonalInfo 描述简历头部的个人信息。
type PersonalInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Title     string `json:"title"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Country   string `json:"country"`
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Website   string `json:"website,omitempty"`
	// PhotoKey 指向对象存储中的头像；为空表示没有照片。
	PhotoKey string `json:"photo_key,omitempty"`
	Summary  string `json:"summary"`
}

// Experience 表示一段工作经历。
type Experience struct {
	ID          string `json:"id"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	IsCurrent   bool   `json:"is_current"`
	Description string `json:"description"`
}

// Education 表示一段教育经历。
type Education struct {
	ID          string `json:"id"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	IsCurrent   bool   `json:"is_current"`
	GPA         string `json:"gpa,omitempty"`
	Description string `json:"description"`
}

// Skill 表示一项技能；Category 用于分组展示。
type Skill struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Level    string `json:"level"`
}

// Project 表示一个项目经历。
type Project struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	URL          string `json:"url,omitempty"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	IsCurrent    bool   `json:"is_current"`
	Description  string `json:"description"`
	Technologies string `json:"technologies"`
}

// Certification 表示一项证书。
type Certification struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Issuer     string `json:"issuer"`
	IssueDate  string `json:"issue_date"`
	ExpiryDate string `json:"expiry_date,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Language 表示语言能力。
type Language struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Proficiency string `json:"proficiency"`
}

// Reference 表示推荐人信息。
type Reference struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Company  string `json:"company"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// CustomSection 表示用户自定义分区，内容为富文本 HTML。
type CustomSection struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// New 返回一份空的默认文档。
func New() Data {
	return Data{
		Experience:     []Experience{},
		Education:      []Education{},
		Skills:         []Skill{},
		Projects:       []Project{},
		Certifications: []Certification{},
		Languages:      []Language{},
		References:     []Reference{},
		CustomSections: []CustomSection{},
	}
}
