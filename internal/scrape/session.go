// Package scrape owns the headless browser used to read computed styles
// from live pages. A Session is opened explicitly, is safe for concurrent
// Extract calls, and must be closed by its owner.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"oasis/internal/dna"
)

type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local headless Chrome.
	RemoteURL string `yaml:"remote_url"`
	// Stealth applies go-rod/stealth evasions to each page.
	Stealth bool `yaml:"stealth"`
	// NavTimeout bounds navigation plus load. Default: 30s.
	NavTimeout time.Duration `yaml:"nav_timeout"`
	// Viewport width and height in CSS pixels. Default: 1440x900.
	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1440
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 900
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

type Session struct {
	cfg     Config
	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// Open launches (or connects to) Chrome and returns a ready session.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	cfg.defaults()
	log := cfg.Logger
	s := &Session{cfg: cfg}

	wsURL := cfg.RemoteURL
	if wsURL != "" {
		log.Info("scrape: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Context(ctx).Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("scrape: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		log.Info("scrape: launched local chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("scrape: connect: %w", err)
	}
	s.browser = b
	return s, nil
}

// Extract navigates a fresh tab to pageURL and returns its element tree.
func (s *Session) Extract(ctx context.Context, pageURL string) ([]dna.Element, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return nil, fmt.Errorf("url is required")
	}
	s.mu.RLock()
	b, closed := s.browser, s.closed
	s.mu.RUnlock()
	if closed || b == nil {
		return nil, fmt.Errorf("scrape: session is closed")
	}

	var page *rod.Page
	var err error
	if s.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("scrape: create tab: %w", err)
	}
	defer page.Close()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.ViewportWidth,
		Height:            s.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		s.cfg.Logger.Warn("scrape: set viewport failed", "error", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()
	p := page.Context(navCtx)
	if err := p.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("scrape: navigate %s: %w", pageURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		s.cfg.Logger.Warn("scrape: wait load timeout", "url", pageURL, "error", err)
	}

	res, err := p.Eval(script())
	if err != nil {
		return nil, fmt.Errorf("scrape: extract %s: %w", pageURL, err)
	}
	els, err := decodeElements(res.Value.Str())
	if err != nil {
		return nil, fmt.Errorf("scrape: decode %s: %w", pageURL, err)
	}
	s.cfg.Logger.Info("scrape: extracted", "url", pageURL, "elements", dna.Count(els))
	return els, nil
}

// Close shuts the browser down. Further Extract calls fail.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.cleanup()
}

func (s *Session) cleanup() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return err
}

func decodeElements(raw string) ([]dna.Element, error) {
	var els []dna.Element
	if err := json.Unmarshal([]byte(raw), &els); err != nil {
		return nil, err
	}
	return els, nil
}
