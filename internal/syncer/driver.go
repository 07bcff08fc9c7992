package syncer

//go:generate mockgen -destination=mock_deps_test.go -package=syncer . Fetcher,Mover

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/aaronromeo/mailtriage/internal/message"
	"github.com/aaronromeo/mailtriage/internal/rules"
)

const instrumentationName = "github.com/aaronromeo/mailtriage/internal/syncer"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)
)

type Fetcher interface {
	FetchHeaders(ctx context.Context, start uint32, fn func(message.Raw) error) error
}

type Extractor interface {
	Extract(raw []byte, id message.Identity) (message.Header, error)
}

type Classifier interface {
	Classify(h message.Header) rules.Decision
}

type Mover interface {
	Move(ctx context.Context, id message.Identity, destination string) error
}

// Stats counts what one pass did.
type Stats struct {
	Observed int
	Moved    int
	Skipped  int
}

type Option func(*Driver)

// WithObserver registers fn to be called after every successful move.
func WithObserver(fn func(message.Header, rules.Decision)) Option {
	return func(d *Driver) {
		d.onMove = fn
	}
}

// WithReporter registers fn to receive the counts of every pass, including
// passes that end in an error.
func WithReporter(fn func(Stats)) Option {
	return func(d *Driver) {
		d.report = fn
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(d *Driver) {
		d.log = log
	}
}

// Driver runs one scan of the selected mailbox: it collects every candidate
// header first and only then classifies and moves them.
type Driver struct {
	fetcher    Fetcher
	extractor  Extractor
	classifier Classifier
	mover      Mover

	onMove func(message.Header, rules.Decision)
	report func(Stats)
	log    *slog.Logger

	observed metric.Int64Counter
	moved    metric.Int64Counter
	skipped  metric.Int64Counter
}

func New(fetcher Fetcher, extractor Extractor, classifier Classifier, mover Mover, opts ...Option) *Driver {
	d := &Driver{
		fetcher:    fetcher,
		extractor:  extractor,
		classifier: classifier,
		mover:      mover,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	// The global meter falls back to a noop implementation, so instrument
	// creation errors are not fatal.
	var err error
	if d.observed, err = meter.Int64Counter("mailtriage.messages.observed",
		metric.WithDescription("Messages collected as sync candidates")); err != nil {
		d.log.Warn("create counter", "error", err)
	}
	if d.moved, err = meter.Int64Counter("mailtriage.messages.moved",
		metric.WithDescription("Messages moved to a destination folder")); err != nil {
		d.log.Warn("create counter", "error", err)
	}
	if d.skipped, err = meter.Int64Counter("mailtriage.messages.skipped",
		metric.WithDescription("Messages left in place")); err != nil {
		d.log.Warn("create counter", "error", err)
	}
	return d
}

// Sync scans UIDs from rangeStart onwards. A message is a candidate when force
// is set or its UID is at or past wm.Next. The returned watermark has advanced
// past every collected candidate, and is returned even when a move fails.
func (d *Driver) Sync(ctx context.Context, rangeStart uint32, force bool, wm message.Watermark) (message.Watermark, error) {
	ctx, span := tracer.Start(ctx, "syncer.Sync")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("range.start", int64(rangeStart)),
		attribute.Bool("force", force),
		attribute.Int64("watermark.next", int64(wm.Next)),
		attribute.Int64("watermark.generation", int64(wm.Generation)),
	)

	var stats Stats
	defer func() {
		span.SetAttributes(
			attribute.Int("messages.observed", stats.Observed),
			attribute.Int("messages.moved", stats.Moved),
			attribute.Int("messages.skipped", stats.Skipped),
		)
		if d.report != nil {
			d.report(stats)
		}
	}()

	d.log.Debug("sync started", "range_start", rangeStart, "force", force, "watermark", wm.Next, "generation", wm.Generation)

	// Collect. No other command is issued while the fetch is streaming.
	var candidates []message.Header
	err := d.fetcher.FetchHeaders(ctx, rangeStart, func(raw message.Raw) error {
		if !force && raw.UID < wm.Next {
			return nil
		}
		h, err := d.extractor.Extract(raw.Header, message.Identity{UID: raw.UID, Generation: wm.Generation})
		if err != nil {
			return err
		}
		candidates = append(candidates, h)
		wm = wm.Advance(raw.UID)
		return nil
	})
	stats.Observed = len(candidates)
	d.add(ctx, d.observed, stats.Observed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "collect")
		return wm, err
	}

	// Act, in server order.
	for _, h := range candidates {
		decision := d.classifier.Classify(h)
		if decision.Action != rules.Move {
			stats.Skipped++
			d.add(ctx, d.skipped, 1)
			d.log.Debug("no rule matched", "uid", h.Identity.UID, "from", h.From, "to", h.To)
			continue
		}

		d.log.Info("rule matched",
			"uid", h.Identity.UID,
			"rule", decision.Rule,
			"from", h.From,
			"to", h.To,
			"subject", h.Subject,
			"destination", decision.Destination,
		)
		if err := d.mover.Move(ctx, h.Identity, decision.Destination); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "move")
			return wm, err
		}
		stats.Moved++
		d.add(ctx, d.moved, 1)
		if d.onMove != nil {
			d.onMove(h, decision)
		}
	}

	d.log.Debug("sync finished", "watermark", wm.Next, "observed", stats.Observed, "moved", stats.Moved)
	return wm, nil
}

func (d *Driver) add(ctx context.Context, c metric.Int64Counter, n int) {
	if c == nil || n == 0 {
		return
	}
	c.Add(ctx, int64(n))
}
