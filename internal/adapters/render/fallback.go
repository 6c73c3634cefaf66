package render

import (
	"context"
	"strings"
	"time"

	"github.com/okian/teampulse/pkg/logger"
	"github.com/okian/teampulse/pkg/metrics"
)

// DefaultPhrase is returned when neither renderer nor template can produce text.
const DefaultPhrase = "Keep collaborating with your team."

// Render outcomes recorded in metrics.
const (
	outcomePrimary  = "primary"
	outcomeTemplate = "template"
	outcomeMessage  = "message"
	outcomeDefault  = "default"
)

// Fallback bounds a primary renderer with a timeout and falls back to the
// deterministic templates. Its Render never returns an error or empty text.
type Fallback struct {
	primary  Renderer
	template *TemplateRenderer
	timeout  time.Duration
	logger   logger.Logger
}

// Option configures a Fallback.
type Option func(*Fallback)

// WithTimeout bounds each primary call.
func WithTimeout(d time.Duration) Option {
	return func(f *Fallback) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l logger.Logger) Option {
	return func(f *Fallback) {
		f.logger = l
	}
}

// NewFallback wraps primary. A nil primary renders from templates only.
func NewFallback(primary Renderer, opts ...Option) *Fallback {
	f := &Fallback{
		primary:  primary,
		template: NewTemplateRenderer(),
		timeout:  3 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.Named("render")
	}
	return f
}

// Render tries the primary renderer, then the template, then the caller's
// message, then DefaultPhrase. The error is always nil.
func (f *Fallback) Render(ctx context.Context, kind Kind, params Params) (string, error) {
	if f.primary != nil {
		text, err := f.renderPrimary(ctx, kind, params)
		if err == nil {
			metrics.RecordRendererCall(string(kind), outcomePrimary)
			return text, nil
		}
		f.logger.Warn(ctx, "phrase renderer failed, using template",
			logger.String("kind", string(kind)), logger.Error(err))
	}

	start := time.Now()
	text, err := f.template.Render(ctx, kind, params)
	metrics.RecordRendererLatency("template", float64(time.Since(start).Microseconds())/1000)
	if err == nil && strings.TrimSpace(text) != "" {
		metrics.RecordRendererCall(string(kind), outcomeTemplate)
		return text, nil
	}
	if err != nil {
		f.logger.Debug(ctx, "template render failed", logger.String("kind", string(kind)), logger.Error(err))
	}

	if msg := strings.TrimSpace(params[ParamMessage]); msg != "" {
		metrics.RecordRendererCall(string(kind), outcomeMessage)
		return msg, nil
	}
	metrics.RecordRendererCall(string(kind), outcomeDefault)
	return DefaultPhrase, nil
}

func (f *Fallback) renderPrimary(ctx context.Context, kind Kind, params Params) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := f.primary.Render(ctx, kind, params)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		if r.err == nil && strings.TrimSpace(r.text) == "" {
			return "", ErrEmptyOutput
		}
		return r.text, r.err
	case <-ctx.Done():
		return "", ErrTimeout
	}
}

// Available reports whether the primary backend is reachable. Template-only
// fallbacks are always available.
func (f *Fallback) Available(ctx context.Context) bool {
	if f.primary == nil {
		return true
	}
	if p, ok := f.primary.(Prober); ok {
		return p.Available(ctx)
	}
	return true
}

// Provider names the primary backend for diagnostics.
func (f *Fallback) Provider() string {
	switch f.primary.(type) {
	case nil:
		return "template"
	case *OllamaRenderer:
		return "ollama"
	default:
		return "custom"
	}
}
