package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"resumeforge/internal/resume"
	"resumeforge/internal/template"
)

type fakePhotos struct {
	objects map[string][]byte
	failAll bool
}

func (f *fakePhotos) FetchAsset(_ context.Context, objectKey string) ([]byte, string, error) {
	if f.failAll {
		return nil, "", errors.New("storage unavailable")
	}
	data, ok := f.objects[objectKey]
	if !ok {
		return nil, "", errors.New("no such key")
	}
	return data, "image/png", nil
}

func sampleDoc() resume.Data {
	doc := resume.New()
	doc.PersonalInfo = resume.PersonalInfo{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Summary:   "Backend engineer.",
	}
	doc.Experience = []resume.Experience{
		{ID: "e1", Company: "Acme", Position: "Engineer", StartDate: "2020-01", IsCurrent: true},
	}
	doc.Skills = []resume.Skill{
		{ID: "s1", Name: "Go", Category: "Lang"},
		{ID: "s2", Name: "Docker", Category: "Tool"},
		{ID: "s3", Name: "Rust", Category: "Lang"},
	}
	return doc
}

func sampleTpl() template.Template {
	return template.Builtin()[0]
}

func TestHTMLExportContainsContentOnce(t *testing.T) {
	exporter := NewHTMLExporter(nil, nil)
	out, err := exporter.Export(context.Background(), sampleDoc(), sampleTpl(), DefaultOptions(FormatHTML, "classic-chronological"))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	html := string(out)

	// 标题与正文头部各出现一次
	if got := strings.Count(html, "Jane Doe"); got != 2 {
		t.Fatalf("expected name in title and header (2 occurrences), got %d", got)
	}
	if got := strings.Count(html, "Professional Experience"); got != 1 {
		t.Fatalf("expected one experience heading, got %d", got)
	}
	if strings.Contains(html, "Education") {
		t.Fatal("empty education section should be omitted")
	}
	if !strings.Contains(html, "<!DOCTYPE html>") || !strings.Contains(html, "</html>") {
		t.Fatal("output is not a self-contained document")
	}
	if !strings.Contains(html, "@media print") {
		t.Fatal("print stylesheet missing")
	}
	if !strings.Contains(html, "window.print") {
		t.Fatal("print trigger script missing")
	}
}

func TestHTMLExportInlinesPhoto(t *testing.T) {
	doc := sampleDoc()
	doc.PersonalInfo.PhotoKey = "user-assets/1/photo.png"
	photos := &fakePhotos{objects: map[string][]byte{
		"user-assets/1/photo.png": []byte("\x89PNG fake"),
	}}

	exporter := NewHTMLExporter(photos, nil)
	out, err := exporter.Export(context.Background(), doc, sampleTpl(), DefaultOptions(FormatHTML, ""))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(out), "data:image/png;base64,") {
		t.Fatal("photo not inlined as data URI")
	}
}

func TestHTMLExportSkipsPhotoOnFetchError(t *testing.T) {
	doc := sampleDoc()
	doc.PersonalInfo.PhotoKey = "user-assets/1/photo.png"

	exporter := NewHTMLExporter(&fakePhotos{failAll: true}, nil)
	out, err := exporter.Export(context.Background(), doc, sampleTpl(), DefaultOptions(FormatHTML, ""))
	if err != nil {
		t.Fatalf("photo fetch failure should not fail export: %v", err)
	}
	if strings.Contains(string(out), "resume-photo") {
		t.Fatal("photo markup present despite fetch failure")
	}
}

func TestHTMLExportRespectsIncludePhotoFlag(t *testing.T) {
	doc := sampleDoc()
	doc.PersonalInfo.PhotoKey = "user-assets/1/photo.png"
	photos := &fakePhotos{objects: map[string][]byte{
		"user-assets/1/photo.png": []byte("img"),
	}}

	opts := DefaultOptions(FormatHTML, "")
	opts.IncludePhoto = false

	exporter := NewHTMLExporter(photos, nil)
	out, err := exporter.Export(context.Background(), doc, sampleTpl(), opts)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Contains(string(out), "resume-photo") {
		t.Fatal("photo included despite IncludePhoto=false")
	}
}

func TestDOCXExportProducesDocument(t *testing.T) {
	exporter := NewDOCXExporter()
	out, err := exporter.Export(context.Background(), sampleDoc(), sampleTpl(), DefaultOptions(FormatDOCX, ""))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("PK")) {
		t.Fatal("docx output is not a zip container")
	}
}

func TestContentBlocksFollowExportOrder(t *testing.T) {
	doc := sampleDoc()
	doc.References = []resume.Reference{{ID: "r1", Name: "Ref One", Email: "ref@x.com"}}
	doc.CustomSections = []resume.CustomSection{{ID: "c1", Title: "Awards", Content: "<p>Gold</p>"}}

	blocks := buildContentBlocks(doc)
	titles := make([]string, 0, len(blocks))
	for _, b := range blocks {
		titles = append(titles, b.Title)
	}

	want := []string{"Professional Summary", "Professional Experience", "Skills", "Awards", "References"}
	if len(titles) != len(want) {
		t.Fatalf("unexpected blocks %v", titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("block order %v, want %v", titles, want)
		}
	}
}

func TestContentBlocksSkillGroupOrder(t *testing.T) {
	blocks := buildContentBlocks(sampleDoc())
	var skills *contentBlock
	for i := range blocks {
		if blocks[i].Title == "Skills" {
			skills = &blocks[i]
		}
	}
	if skills == nil {
		t.Fatal("skills block missing")
	}
	if skills.Entries[0].Heading != "Lang" || skills.Entries[1].Heading != "Tool" {
		t.Fatalf("unexpected skill group order: %+v", skills.Entries)
	}
	if skills.Entries[0].Body != "Go, Rust" {
		t.Fatalf("unexpected Lang skills: %q", skills.Entries[0].Body)
	}
}

func TestHTMLToPlainStripsMarkup(t *testing.T) {
	got := htmlToPlain("<p>Led  a&nbsp;team of <strong>five</strong></p>")
	if strings.ContainsAny(got, "<>") {
		t.Fatalf("markup survived: %q", got)
	}
	if !strings.Contains(got, "five") {
		t.Fatalf("text lost: %q", got)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	info := resume.PersonalInfo{FirstName: "Jane", LastName: "Doe"}

	if got := Filename(info, FormatPDF, now); got != "Jane_Doe_Resume_2026-03-14.pdf" {
		t.Fatalf("unexpected filename %q", got)
	}
	if got := Filename(resume.PersonalInfo{}, FormatHTML, now); got != "My_Resume_Resume_2026-03-14.html" {
		t.Fatalf("unexpected fallback filename %q", got)
	}
}

func TestPaperSizeAndQualityMapping(t *testing.T) {
	if w, h := PaperLetter.Dimensions(); w != 8.5 || h != 11 {
		t.Fatalf("letter dimensions %v x %v", w, h)
	}
	if w, h := PaperLegal.Dimensions(); w != 8.5 || h != 14 {
		t.Fatalf("legal dimensions %v x %v", w, h)
	}
	if w, h := PaperA4.Dimensions(); w != 8.27 || h != 11.69 {
		t.Fatalf("a4 dimensions %v x %v", w, h)
	}
	if QualityStandard.Scale() != 1.0 || QualityHigh.Scale() != 1.5 || QualityPrint.Scale() != 2.0 {
		t.Fatal("unexpected quality scale mapping")
	}
}

func TestDocxColor(t *testing.T) {
	cases := map[string]string{
		"#2563eb": "2563EB",
		"2563eb":  "2563EB",
		"#abc":    "AABBCC",
		"bogus":   "000000",
	}
	for in, want := range cases {
		if got := docxColor(in); got != want {
			t.Errorf("docxColor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPipelineRejectsUnknownFormat(t *testing.T) {
	p := NewPipeline(nil, nil)
	opts := DefaultOptions("png", "")
	if _, err := p.Export(context.Background(), sampleDoc(), sampleTpl(), opts); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
