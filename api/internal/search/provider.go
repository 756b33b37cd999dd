package search

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"factcheck/api/internal/config"
	"factcheck/api/internal/util"
)

// Provider grounds a claim with Google Custom Search snippets. It never
// fails outward: every failure degrades to a Fallback context.
type Provider struct {
	apiKey   string
	engineID string
	language string
	num      int64
	maxLen   int
	timeout  time.Duration
	opts     []option.ClientOption
	log      *zap.Logger
}

// New builds a provider from cfg. Extra client options are appended after
// the API key, which lets callers point the client at another endpoint.
func New(cfg *config.Config, log *zap.Logger, opts ...option.ClientOption) *Provider {
	num := int64(cfg.SearchResultCount)
	// the API rejects num outside 1..10
	if num < 1 {
		num = 1
	}
	if num > 10 {
		num = 10
	}
	return &Provider{
		apiKey:   strings.TrimSpace(cfg.SearchAPIKey),
		engineID: strings.TrimSpace(cfg.SearchEngineID),
		language: strings.TrimSpace(cfg.SearchLanguage),
		num:      num,
		maxLen:   cfg.SearchMaxContext,
		timeout:  cfg.SearchTimeout,
		opts:     opts,
		log:      log.Named("search"),
	}
}

func (p *Provider) Configured() bool { return p.apiKey != "" && p.engineID != "" }

func (p *Provider) FetchContext(ctx context.Context, query string) Context {
	p.log.Debug("fetching search context", zap.String("query", query))

	if !p.Configured() {
		p.log.Warn("search credentials not configured, using fallback context")
		return Fallback(ReasonMissingCredentials)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	opts := append([]option.ClientOption{option.WithAPIKey(p.apiKey)}, p.opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		p.log.Error("search client init failed", zap.Error(err))
		return Fallback(ReasonNetwork)
	}

	call := svc.Cse.List().Q(query).Cx(p.engineID).Num(p.num)
	if p.language != "" {
		call = call.Lr(p.language)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			p.log.Error("search API error",
				zap.Int("status", gerr.Code),
				zap.String("body", gerr.Body))
			return Fallback(ReasonUpstreamStatus)
		}
		p.log.Error("search request failed", zap.Error(err))
		return Fallback(ReasonNetwork)
	}

	if res == nil || len(res.Items) == 0 {
		p.log.Info("search returned no results")
		return Fallback(ReasonNoResults)
	}

	parts := make([]string, 0, len(res.Items))
	for _, it := range res.Items {
		if it == nil {
			continue
		}
		parts = append(parts, SnippetMarker+" "+strings.TrimSpace(it.Snippet))
	}
	if len(parts) == 0 {
		return Fallback(ReasonNoResults)
	}

	snippets := util.Truncate(strings.Join(parts, " "), p.maxLen)
	p.log.Info("search context retrieved", zap.Int("snippets", len(parts)))
	return Real(snippets, len(parts))
}
