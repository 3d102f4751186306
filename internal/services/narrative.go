package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/jwebster45206/story-sim/pkg/narrative"
	"github.com/jwebster45206/story-sim/pkg/prompts"
	"github.com/jwebster45206/story-sim/pkg/scenario"
	"github.com/jwebster45206/story-sim/pkg/textfilter"
)

// NarrativeProvider turns narrative requests into prose through an
// LLMService. It never returns an error: any failure becomes a sentinel.
type NarrativeProvider struct {
	llm          LLMService
	filter       *textfilter.Filter
	historyLimit int
	logger       *slog.Logger

	mu       sync.Mutex
	reported bool
}

type ProviderOption func(*NarrativeProvider)

// WithContentRating enables the text filter for ratings that need it.
func WithContentRating(rating string) ProviderOption {
	return func(p *NarrativeProvider) {
		p.filter = textfilter.ForRating(rating)
	}
}

func WithHistoryLimit(n int) ProviderOption {
	return func(p *NarrativeProvider) {
		p.historyLimit = n
	}
}

func NewNarrativeProvider(llm LLMService, logger *slog.Logger, opts ...ProviderOption) *NarrativeProvider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &NarrativeProvider{
		llm:          llm,
		historyLimit: 10,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *NarrativeProvider) Generate(ctx context.Context, req narrative.Request) string {
	if p.llm == nil {
		p.fail("no llm backend", nil, req.Kind)
		return narrative.Sentinel("no llm backend")
	}

	if p.filter != nil && req.Rating == "" {
		req.Rating = scenario.RatingPG13
	}

	messages, err := prompts.BuildMessages(req, p.historyLimit)
	if err != nil {
		p.fail("prompt build failed", err, req.Kind)
		return narrative.Sentinel(err.Error())
	}

	text, err := p.llm.Chat(ctx, messages)
	if err != nil {
		p.fail("llm call failed", err, req.Kind)
		return narrative.Sentinel("the story falters")
	}

	text = strings.TrimSpace(text)
	if text == "" || text == msgNoResponse {
		p.fail("llm returned nothing", nil, req.Kind)
		return narrative.Sentinel("no text returned")
	}
	if narrative.IsSentinel(text) {
		// strip an echoed marker
		text = strings.TrimSpace(strings.TrimPrefix(text, narrative.SentinelPrefix))
		if text == "" {
			return narrative.Sentinel("no text returned")
		}
	}
	return p.filter.Apply(text)
}

// fail logs the first failure at error level and later ones at debug, so
// an unreachable backend does not flood the log.
func (p *NarrativeProvider) fail(msg string, err error, kind narrative.Kind) {
	p.mu.Lock()
	first := !p.reported
	p.reported = true
	p.mu.Unlock()

	attrs := []any{"kind", kind}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	if first {
		p.logger.Error("narrative provider unavailable: "+msg, attrs...)
		return
	}
	p.logger.Debug(msg, attrs...)
}
