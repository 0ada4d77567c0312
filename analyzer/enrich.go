package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/client"
	"github.com/spetersoncode/almond/prompt"
)

const (
	enrichTemperature = 0.2
	enrichMaxTokens   = 300

	// fallbackTitleRunes is how much of the input becomes a title when
	// enrichment yields none.
	fallbackTitleRunes = 16
)

type enrichment struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// enrich fills a missing title or content from the freeform input. One
// structured call is made, honoring the request's generation overrides; if
// it fails the title falls back to the first runes of the input and the
// content to the input itself. elapsed is the time spent in the call.
func (a *Analyzer) enrich(ctx context.Context, title, content, text string, g Generation) (_, _ string, elapsed time.Duration) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title != "" && content != "" {
		return title, content, 0
	}
	source := firstNonEmpty(text, content, title)
	if source == "" {
		return title, content, 0
	}

	start := time.Now()
	out, _, err := structured[enrichment](ctx, a, g, prompt.Enrichment(source), prompt.EnrichmentSystem,
		almond.WithTemperature(enrichTemperature), almond.WithMaxTokens(enrichMaxTokens))
	elapsed = time.Since(start)
	if err != nil {
		a.logger.WarnContext(ctx, "enrichment failed, using input as is", "error", err)
	}

	if title == "" {
		title = firstNonEmpty(out.Title, truncate(source, fallbackTitleRunes))
	}
	if content == "" {
		content = firstNonEmpty(out.Content, source)
	}
	return title, content, elapsed
}

// structured makes one structured call against the configured backend, or
// g's model when set, and decodes the reply. Options apply in order: the
// configured defaults, then opts, then g's overrides.
func structured[T any](ctx context.Context, a *Analyzer, g Generation, userPrompt, systemPrompt string, opts ...almond.Option) (T, *almond.Response, error) {
	var zero T
	s := a.settings(Generation{Model: g.Model})
	gen, err := a.resolver.Resolve(ctx, string(s.Provider), s.Model)
	if err != nil {
		return zero, nil, err
	}
	all := append(append(s.Options, opts...), g.options()...)
	resp, err := gen.GenerateStructured(ctx, userPrompt, systemPrompt, all...)
	if err != nil {
		return zero, nil, err
	}
	out, err := client.Decode[T](resp)
	if err != nil {
		return zero, nil, err
	}
	return out, resp, nil
}
