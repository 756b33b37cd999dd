package verify

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"factcheck/api/internal/config"
	"factcheck/api/internal/nli"
	"factcheck/api/internal/search"
)

var ErrEmptyClaim = errors.New("claim text is empty")

// ConfigError means the server is missing something it needs to classify.
// It is raised before any outbound call.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "configuration: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// ContextFetcher grounds a query. Implementations never fail; they degrade
// to a fallback context.
type ContextFetcher interface {
	FetchContext(ctx context.Context, query string) search.Context
}

// Report is everything one verification produced.
type Report struct {
	Verdict    nli.Verdict
	Context    search.Context
	Prediction *nli.Prediction
	Engine     string
}

type Pipeline struct {
	fetcher           ContextFetcher
	engine            nli.Engine
	classifierTimeout time.Duration
	tracer            trace.Tracer
	log               *zap.Logger
}

func New(cfg *config.Config, fetcher ContextFetcher, engine nli.Engine, log *zap.Logger) *Pipeline {
	return &Pipeline{
		fetcher:           fetcher,
		engine:            engine,
		classifierTimeout: cfg.ClassifierTimeout,
		tracer:            otel.Tracer("factcheck/verify"),
		log:               log.Named("verify"),
	}
}

func (p *Pipeline) Engine() nli.Engine { return p.engine }

func (p *Pipeline) Verify(ctx context.Context, c Claim) (Report, error) {
	return p.VerifyWith(ctx, p.engine, c)
}

// VerifyWith runs search, compose, classify and map in order with the given
// engine. Only configuration and classifier failures are returned as errors.
func (p *Pipeline) VerifyWith(ctx context.Context, eng nli.Engine, c Claim) (Report, error) {
	if strings.TrimSpace(c.Text) == "" {
		return Report{}, ErrEmptyClaim
	}
	if eng == nil {
		return Report{}, &ConfigError{Err: errors.New("no classifier engine")}
	}
	if err := eng.Ready(); err != nil {
		p.log.Error("classifier not configured", zap.String("engine", eng.Name()), zap.Error(err))
		return Report{}, &ConfigError{Err: err}
	}

	ctx, span := p.tracer.Start(ctx, "verify", trace.WithAttributes(
		attribute.Bool("claim.is_link", c.IsLink),
		attribute.String("classifier.engine", eng.Name()),
	))
	defer span.End()

	sc := p.fetch(ctx, c)
	text := Compose(c, sc)

	pred, err := p.classify(ctx, eng, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "classifier failed")
		return Report{Context: sc, Engine: eng.Name()}, err
	}

	v := nli.ToVerdict(pred, sc)
	span.SetAttributes(attribute.String("verdict.status", string(v.Status)))
	p.log.Info("claim verified",
		zap.String("engine", eng.Name()),
		zap.String("status", string(v.Status)),
		zap.String("search_reason", string(sc.Reason)),
		zap.Bool("indeterminate", pred == nil),
	)
	return Report{Verdict: v, Context: sc, Prediction: pred, Engine: eng.Name()}, nil
}

func (p *Pipeline) fetch(ctx context.Context, c Claim) search.Context {
	ctx, span := p.tracer.Start(ctx, "search")
	defer span.End()

	sc := p.fetcher.FetchContext(ctx, c.Text)
	span.SetAttributes(
		attribute.Int("search.results", sc.Results),
		attribute.String("search.fallback_reason", string(sc.Reason)),
	)
	p.log.Debug("context ready", zap.String("stage", "search"), zap.Int("results", sc.Results), zap.String("reason", string(sc.Reason)))
	return sc
}

func (p *Pipeline) classify(ctx context.Context, eng nli.Engine, text string) (*nli.Prediction, error) {
	ctx, span := p.tracer.Start(ctx, "classify", trace.WithAttributes(attribute.String("classifier.model", eng.GetModel())))
	defer span.End()

	if p.classifierTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.classifierTimeout)
		defer cancel()
	}

	started := time.Now()
	pred, err := eng.Classify(ctx, text)
	if err != nil {
		var ue *nli.UpstreamError
		if errors.As(err, &ue) {
			return nil, err
		}
		var ce *ConfigError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, &nli.UpstreamError{Engine: eng.Name(), Detail: err.Error()}
	}
	fields := []zap.Field{zap.String("stage", "classify"), zap.Duration("took", time.Since(started))}
	if pred != nil {
		span.SetAttributes(attribute.String("prediction.label", string(pred.Label)), attribute.Float64("prediction.score", pred.Score))
		fields = append(fields, zap.String("label", string(pred.Label)), zap.Float64("score", pred.Score))
	}
	p.log.Debug("classified", fields...)
	return pred, nil
}
