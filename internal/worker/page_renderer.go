package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"kidsfolio/internal/render"
)

// snapshotCSS 隐藏交互控件并保证主题背景被绘制进截图。
const snapshotCSS = `
[` + render.SnapshotExcludeAttr + `] { display: none !important; }
html, body { margin: 0 !important; background: var(--bg) !important; }
* { -webkit-print-color-adjust: exact !important; print-color-adjust: exact !important; }
#` + render.RootID + ` { background: var(--bg) !important; }
`

// RodCapturer 使用无头 Chromium 截取作品集页面。
type RodCapturer struct {
	logger        *slog.Logger
	bin           string
	timeout       time.Duration
	viewportWidth int
}

func NewRodCapturer(logger *slog.Logger, bin string, timeout time.Duration, viewportWidth int) *RodCapturer {
	if viewportWidth <= 0 {
		viewportWidth = 1200
	}
	return &RodCapturer{logger: logger, bin: strings.TrimSpace(bin), timeout: timeout, viewportWidth: viewportWidth}
}

// Capture 打开 targetURL，隐藏标记为导出排除的元素后截取 #portfolio-root。
func (r *RodCapturer) Capture(ctx context.Context, targetURL string, headers map[string]string) (_ []byte, err error) {
	r.logger.Info("worker: navigating to print page", slog.String("url", targetURL))

	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	defer launch.Cleanup()

	switch {
	case r.bin != "":
		launch = launch.Bin(r.bin)
	default:
		if path, ok := launcher.LookPath(); ok {
			launch = launch.Bin(path)
		}
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).Context(ctx).Timeout(r.timeout)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	dict := make([]string, 0, len(headers)*2)
	for k, v := range headers {
		if v != "" {
			dict = append(dict, k, v)
		}
	}
	if len(dict) > 0 {
		restore, err := page.SetExtraHeaders(dict)
		if err != nil {
			return nil, fmt.Errorf("set extra headers: %w", err)
		}
		defer restore()
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             r.viewportWidth,
		Height:            900,
		DeviceScaleFactor: 2,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.Navigate(targetURL); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	// 等待 WebFont 就绪，避免回退字体导致排版差异
	if _, evalErr := page.Timeout(5 * time.Second).Eval(`() => {
	  if (document && document.fonts && document.fonts.ready) {
	    return Promise.race([
	      document.fonts.ready.then(() => true),
	      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
	    ]);
	  }
	  return true;
	}`); evalErr != nil {
		r.logger.Warn("worker: document.fonts.ready wait failed, continue", slog.Any("error", evalErr))
	}

	if err := page.AddStyleTag("", snapshotCSS); err != nil {
		return nil, fmt.Errorf("inject snapshot css: %w", err)
	}
	if err := page.WaitIdle(2 * time.Second); err != nil {
		r.logger.Warn("worker: wait idle failed, continue", slog.Any("error", err))
	}

	root, err := page.Element("#" + render.RootID)
	if err != nil {
		return nil, fmt.Errorf("find portfolio root: %w", err)
	}
	data, err := root.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot portfolio root: %w", err)
	}
	return data, nil
}
