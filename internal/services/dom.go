package services

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"calclik-event-scanner/internal/models"
)

// DOMScanner is the live-page scanning collaborator: it drives a headless
// browser to a URL and returns the page's visible text together with the
// structured elements whose class or id hints at an event. The extraction
// core consumes the result without ever touching DOM APIs itself.
type DOMScanner struct {
	timeout time.Duration
	// settleDelay gives client-rendered pages a moment to paint before the
	// text is read.
	settleDelay time.Duration
}

// PageCapture is the raw material one DOM scan hands to the pipeline.
type PageCapture struct {
	URL        string                     `json:"url"`
	Title      string                     `json:"title"`
	Text       string                     `json:"text"`
	Structured []models.StructuredElement `json:"structured"`
}

// DefaultDOMTimeout bounds one full page scan including browser startup.
const DefaultDOMTimeout = 30 * time.Second

// structuredElementsJS enumerates event-hinting and article-like elements,
// mirroring what the block extractor's structured path expects.
const structuredElementsJS = `(() => {
	const out = [];
	const seen = new Set();
	document.querySelectorAll('.event, article, [class*="event"], [id*="event"]').forEach(el => {
		if (seen.has(el)) return;
		seen.add(el);
		const text = el.innerText || '';
		if (text.trim().length > 0) {
			out.push({ text: text, selector: el.tagName.toLowerCase() });
		}
	});
	return out.slice(0, 50);
})()`

// NewDOMScanner creates a DOM scanner with the default timeout.
func NewDOMScanner() *DOMScanner {
	return &DOMScanner{
		timeout:     DefaultDOMTimeout,
		settleDelay: 1 * time.Second,
	}
}

// NewDOMScannerWithTimeout creates a DOM scanner with a custom timeout.
func NewDOMScannerWithTimeout(timeout time.Duration) *DOMScanner {
	scanner := NewDOMScanner()
	if timeout > 0 {
		scanner.timeout = timeout
	}
	return scanner
}

// ScanPage navigates to url in a headless browser and captures the page
// title, body text, and structured event-hinting elements.
func (d *DOMScanner) ScanPage(parentCtx context.Context, url string) (*PageCapture, error) {
	if url == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, d.timeout)
	defer timeoutCancel()

	var title, text string
	var structured []models.StructuredElement

	tasks := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.Sleep(d.settleDelay),
		chromedp.Title(&title),
		chromedp.Evaluate(`document.body ? document.body.innerText : ''`, &text),
		chromedp.Evaluate(structuredElementsJS, &structured),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("dom scan failed: %w", err)
	}

	return &PageCapture{
		URL:        url,
		Title:      title,
		Text:       text,
		Structured: structured,
	}, nil
}
