package export

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"mapcreator/api/internal/project"
)

const (
	captureWidth  = 1600
	captureHeight = 900

	// Leaflet loads tiles asynchronously with no completion signal exposed
	// to the page, so the capture waits a fixed settle period.
	tileSettleDelay = 3 * time.Second
)

// percentEncodeForDataURL encodes a string for use in a data URL.
// Unlike url.QueryEscape, this encodes spaces as %20 rather than +.
func percentEncodeForDataURL(s string) string {
	var result strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_', r == '.', r == '~':
			// Unreserved characters per RFC 3986
			result.WriteRune(r)
		case r == ' ':
			result.WriteString("%20")
		default:
			for _, b := range string(r) {
				result.WriteString(fmt.Sprintf("%%%02X", b))
			}
		}
	}
	return result.String()
}

// GenerateImage renders the export page in headless Chrome and captures it
// as a JPEG. Zoom and attribution controls are hidden before the shot so
// the capture shows only the map.
func GenerateImage(ctx context.Context, doc *project.Document) (*Result, error) {
	if _, err := exec.LookPath("chromium-browser"); err != nil {
		if _, fallbackErr := exec.LookPath("chromium"); fallbackErr != nil {
			return nil, fmt.Errorf("%w: chromium not installed", ErrChromiumMissing)
		}
	}

	htmlResult, err := GenerateHTML(doc)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-features", "IsolateOrigins,site-per-process"),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	dataURL := "data:text/html;charset=utf-8," + percentEncodeForDataURL(string(htmlResult.Data))

	var imageData []byte
	err = chromedp.Run(taskCtx,
		chromedp.EmulateViewport(captureWidth, captureHeight),
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(tileSettleDelay),
		chromedp.Evaluate(`document.querySelectorAll('.leaflet-control-container').forEach(el => el.style.display = 'none')`, nil),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			imageData, err = cdppage.CaptureScreenshot().
				WithFormat(cdppage.CaptureScreenshotFormatJpeg).
				WithQuality(95).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome image capture failed: %w", err)
	}

	return &Result{
		Data:     imageData,
		Filename: "map.jpg",
		MimeType: "image/jpeg",
	}, nil
}
