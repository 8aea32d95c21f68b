// Package browser manages a shared headless Chrome instance for sources
// that render their listings client-side.
package browser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// PageStableTimeout bounds how long we wait for a page to settle. An
// unresponsive source must not stall the whole run.
var PageStableTimeout = 30 * time.Second

// Interface is the narrow render contract extractors consume: navigate,
// wait for the page to settle, return the final markup.
type Interface interface {
	// HTML loads url, waits for stability plus an extra settle delay (for
	// frameworks that hydrate after load), and returns the rendered markup.
	HTML(ctx context.Context, url string, settle time.Duration) (string, error)
	// WithPage runs fn against a page loaded at url, for callers that need
	// more than a one-shot render.
	WithPage(ctx context.Context, url string, fn func(*rod.Page) error) error

	io.Closer
}

// headlessBrowser owns a single rod browser. A channel of capacity 1
// serializes access: callers receive the browser, use it, then send it back,
// so only one page session runs at a time.
type headlessBrowser struct {
	initOnce sync.Once
	initErr  error
	started  atomic.Bool
	ch       chan *rod.Browser
}

// Headless returns a Browser that lazily launches one headless chrome
// process on first use and reuses it for every render.
func Headless() Interface {
	return &headlessBrowser{
		ch: make(chan *rod.Browser, 1),
	}
}

func (h *headlessBrowser) init() error {
	h.initOnce.Do(func() {
		h.started.Store(true)
		u, err := launcher.New().Logger(newLauncherLogger()).Leakless(false).Launch()
		if err != nil {
			h.initErr = fmt.Errorf("launch browser: %w", err)
			close(h.ch)
			return
		}
		b := rod.New().ControlURL(u)
		if err := b.Connect(); err != nil {
			h.initErr = fmt.Errorf("connect to browser: %w", err)
			close(h.ch)
			return
		}
		h.ch <- b
	})
	return h.initErr
}

func (h *headlessBrowser) Close() error {
	if !h.started.Load() {
		return nil
	}
	b, ok := <-h.ch
	if !ok {
		return h.initErr
	}
	return b.Close()
}

// WithPage receives the shared browser from the channel, creates a page at
// url, runs fn, then sends the browser back. The page is closed when fn
// returns.
func (h *headlessBrowser) WithPage(ctx context.Context, url string, fn func(page *rod.Page) error) error {
	if err := h.init(); err != nil {
		return err
	}
	b, ok := <-h.ch
	if !ok {
		return h.initErr
	}
	defer func() { h.ch <- b }()

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	defer page.MustClose()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := rod.Try(func() {
		page.Timeout(PageStableTimeout).MustWaitStable()
	}); err != nil {
		return fmt.Errorf("wait for page stable: %w", err)
	}

	return fn(page)
}

func (h *headlessBrowser) HTML(ctx context.Context, url string, settle time.Duration) (string, error) {
	var html string
	err := h.WithPage(ctx, url, func(page *rod.Page) error {
		if settle > 0 {
			select {
			case <-time.After(settle):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		var err error
		html, err = page.HTML()
		if err != nil {
			return fmt.Errorf("read page html: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return html, nil
}

// launcherLogger forwards launcher output (e.g. chromium download progress)
// to slog at debug level, one line at a time.
type launcherLogger struct {
	buf []byte
}

func (w *launcherLogger) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
		if line != "" {
			slog.Debug("rod launcher", "message", line)
		}
	}
	return len(p), nil
}

func newLauncherLogger() io.Writer {
	return &launcherLogger{}
}
