package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserConfig holds settings for the headless-browser content source.
type BrowserConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Cookie   string        `yaml:"cookie"`
	Headless bool          `yaml:"headless"`
	Timeout  time.Duration `yaml:"timeout"`
}

// BrowserSource scrapes topic and post data with a headless Chrome instance.
// Using a real browser sidesteps the platform's request-signature checks. The
// browser context is created lazily on first use and torn down by Shutdown.
type BrowserSource struct {
	cfg BrowserConfig

	mu          sync.Mutex
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
}

// NewBrowserSource creates a browser-backed content source. A zero timeout
// defaults to 60 seconds per call.
func NewBrowserSource(cfg BrowserConfig) *BrowserSource {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &BrowserSource{cfg: cfg}
}

// browserContext lazily starts the shared browser context.
func (b *BrowserSource) browserContext(ctx context.Context) (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil && b.browserCtx.Err() == nil {
		return b.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	if b.cfg.Cookie != "" {
		if err := b.injectCookies(browserCtx); err != nil {
			cancel()
			allocCancel()

			return nil, fmt.Errorf("%w: inject cookies: %v", ErrUnavailable, err)
		}
	}

	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.cancel = cancel

	return b.browserCtx, ctx.Err()
}

// injectCookies sets the configured session cookies in the browser context.
func (b *BrowserSource) injectCookies(ctx context.Context) error {
	domain := cookieDomain(b.cfg.BaseURL)

	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, item := range strings.Split(b.cfg.Cookie, ";") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}

			name, value, found := strings.Cut(item, "=")
			if !found {
				continue
			}

			err := network.SetCookie(name, value).
				WithDomain(domain).
				WithPath("/").
				Do(ctx)
			if err != nil {
				return err
			}
		}

		return nil
	}))
}

// SearchTopics navigates to the platform's search page for the keyword and
// extracts trending topic entries from the DOM, emitting the same topics JSON
// shape the platform API uses.
func (b *BrowserSource) SearchTopics(ctx context.Context, keyword string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	raw, err := b.scrape(ctx, b.searchURL("topics", keyword), topicExtractJS(limit))
	if err != nil {
		return "", err
	}

	return raw, nil
}

// RetrievePosts navigates to the platform's post search for the keyword and
// extracts visible posts, emitting an `{"items":[...]}` JSON document.
func (b *BrowserSource) RetrievePosts(ctx context.Context, keyword string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	raw, err := b.scrape(ctx, b.searchURL("posts", keyword), postExtractJS(limit))
	if err != nil {
		return "", err
	}

	return raw, nil
}

func (b *BrowserSource) scrape(ctx context.Context, pageURL, extractJS string) (string, error) {
	browserCtx, err := b.browserContext(ctx)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(browserCtx, b.cfg.Timeout)
	defer cancel()

	// Tie the scrape to the caller's context as well, so run cancellation
	// stops an in-flight navigation.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	var payload string

	err = chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(extractJS, &payload),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !json.Valid([]byte(payload)) {
		return "", nil
	}

	return payload, nil
}

func (b *BrowserSource) searchURL(kind, keyword string) string {
	base := strings.TrimSuffix(b.cfg.BaseURL, "/")

	return fmt.Sprintf("%s/search?type=%s&keyword=%s", base, kind, url.QueryEscape(keyword))
}

// Shutdown tears down the browser context.
func (b *BrowserSource) Shutdown(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}

	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCancel = nil
	}

	b.browserCtx = nil

	return nil
}

func cookieDomain(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}

	return "." + parsed.Hostname()
}

// DOM extractors. Selectors are isolated here because platforms change their
// DOM frequently; update these when scraping breaks.

func topicExtractJS(limit int) string {
	return fmt.Sprintf(`
		(function() {
			const rows = document.querySelectorAll('[data-testid="topic-item"]');
			const topics = [];
			rows.forEach(el => {
				if (topics.length >= %d) return;
				const name = el.querySelector('[data-testid="topic-name"]')?.textContent?.trim() || '';
				const views = el.querySelector('[data-testid="topic-views"]')?.textContent?.trim() || '0';
				const trend = el.querySelector('[data-testid="topic-trend"]')?.textContent?.trim() || 'steady';
				if (name) topics.push({name: name, view_num: views, trend: trend});
			});
			return JSON.stringify({topics: topics});
		})()`, limit)
}

func postExtractJS(limit int) string {
	return fmt.Sprintf(`
		(function() {
			const cards = document.querySelectorAll('[data-testid="note-card"]');
			const items = [];
			const metric = (el, id) => {
				const text = el.querySelector('[data-testid="' + id + '"]')?.textContent?.replace(/[^0-9]/g, '');
				return text ? parseInt(text, 10) : 0;
			};
			cards.forEach(el => {
				if (items.length >= %d) return;
				const title = el.querySelector('[data-testid="note-title"]')?.textContent?.trim() || '';
				const content = el.querySelector('[data-testid="note-content"]')?.textContent?.trim() || '';
				const author = el.querySelector('[data-testid="note-author"]')?.textContent?.trim() || '';
				if (!title && !content) return;
				items.push({
					title: title,
					content: content,
					author: author,
					likes: metric(el, 'note-likes'),
					comments: metric(el, 'note-comments'),
					shares: metric(el, 'note-shares'),
					views: metric(el, 'note-views'),
					tags: []
				});
			});
			return JSON.stringify({items: items});
		})()`, limit)
}
