package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"resumeforge/internal/resume"
	"resumeforge/internal/template"
)

const (
	pdfPageTimeout  = 30 * time.Second
	imageLoadWait   = 3 * time.Second
	renderSettle    = 500 * time.Millisecond
)

// PDFExporter 将 HTML 导出结果交给无头浏览器打印为 PDF。
// 纸张尺寸、页边距与缩放倍率均来自导出选项。
type PDFExporter struct {
	html   *HTMLExporter
	logger *slog.Logger
}

// NewPDFExporter 构造 PDF 导出器。
func NewPDFExporter(html *HTMLExporter, logger *slog.Logger) *PDFExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExporter{html: html, logger: logger}
}

// Export 实现 Exporter。
func (e *PDFExporter) Export(ctx context.Context, data resume.Data, tpl template.Template, opts Options) ([]byte, error) {
	htmlBytes, err := e.html.Export(ctx, data, tpl, opts)
	if err != nil {
		return nil, fmt.Errorf("build html for pdf: %w", err)
	}
	return e.printHTML(string(htmlBytes), opts)
}

func (e *PDFExporter) printHTML(htmlContent string, opts Options) ([]byte, error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)

	if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	defer launch.Cleanup()

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Timeout(pdfPageTimeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	page = page.Timeout(pdfPageTimeout)
	if err := page.SetDocumentContent(htmlContent); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	// 有界等待内联图片解码完成；单张失败或超时都继续导出。
	waitScript := fmt.Sprintf(`() => {
	  const imgs = Array.from(document.images);
	  const all = imgs.map(img => img.complete ? Promise.resolve() :
	    new Promise(resolve => { img.onload = resolve; img.onerror = resolve; }));
	  return Promise.race([
	    Promise.all(all).then(() => true),
	    new Promise(resolve => setTimeout(() => resolve(true), %d))
	  ]);
	}`, imageLoadWait.Milliseconds())
	if _, err := page.Timeout(imageLoadWait + time.Second).Eval(waitScript); err != nil {
		e.logger.Warn("image load wait failed, continuing", slog.Any("error", err))
	}

	time.Sleep(renderSettle)

	// 页边距由文档自身的 CSS 承担，打印侧留零边距避免叠加。
	width, height := opts.PaperSize.Dimensions()
	scale := opts.Quality.Scale()
	zero := 0.0
	params := &proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: false,
		Scale:             &scale,
		PaperWidth:        &width,
		PaperHeight:       &height,
		MarginTop:         &zero,
		MarginBottom:      &zero,
		MarginLeft:        &zero,
		MarginRight:       &zero,
	}

	reader, err := page.PDF(params)
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	pdfBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return pdfBytes, nil
}
