// Package markdown renders assistant message bodies with glamour,
// caching rendered output because timeline views re-render on every
// scroll tick.
package markdown

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/styles"
)

const (
	// MinWidthForMarkdown is the narrowest viewport markdown is worth
	// rendering at; below it plain wrapping is used.
	MinWidthForMarkdown = 30

	// maxCacheEntries bounds the render cache.
	maxCacheEntries = 100
)

// Renderer wraps a glamour term renderer with a width-aware cache.
type Renderer struct {
	mu        sync.RWMutex
	renderer  *glamour.TermRenderer
	lastWidth int
	cache     map[uint64][]string
	order     []uint64
	logger    *slog.Logger
}

// NewRenderer creates a renderer. A nil logger falls back to the
// default slog logger.
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		cache:  make(map[uint64][]string),
		logger: logger,
	}
}

// Render renders markdown content to styled lines at the given width.
// Render errors degrade to plain wrapping, never to an error.
func (r *Renderer) Render(content string, width int) []string {
	if width < MinWidthForMarkdown {
		return WrapText(content, width)
	}
	if content == "" {
		return []string{}
	}

	key := cacheKey(content, width)

	r.mu.RLock()
	if cached, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return cached
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[key]; ok {
		return cached
	}

	renderer, err := r.rendererFor(width)
	if err != nil {
		r.logger.Warn("glamour renderer init failed", "error", err)
		return WrapText(content, width)
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		r.logger.Warn("glamour render failed", "error", err)
		return WrapText(content, width)
	}

	rendered = strings.TrimRight(rendered, "\n\r\t ")
	lines := strings.Split(rendered, "\n")

	if len(r.cache) >= maxCacheEntries {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.cache, oldest)
	}
	r.cache[key] = lines
	r.order = append(r.order, key)
	return lines
}

func cacheKey(content string, width int) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(content)
	_, _ = h.Write([]byte{byte(width >> 8), byte(width)})
	return h.Sum64()
}

// rendererFor reuses the renderer while the width is stable; a width
// change rebuilds it and drops the cache. Caller holds the write lock.
func (r *Renderer) rendererFor(width int) (*glamour.TermRenderer, error) {
	if r.renderer != nil && r.lastWidth == width {
		return r.renderer, nil
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(styles.MarkdownTheme()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	r.renderer = renderer
	r.lastWidth = width
	r.cache = make(map[uint64][]string)
	r.order = nil
	return renderer, nil
}

// WrapText wraps text to the given display width, measuring runes with
// their terminal cell width so CJK text does not overflow.
func WrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{text}
	}
	text = strings.ReplaceAll(text, "\n", " ")

	var lines []string
	words := strings.Fields(text)
	if len(words) == 0 {
		return lines
	}

	current := words[0]
	for _, word := range words[1:] {
		if runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= maxWidth {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
