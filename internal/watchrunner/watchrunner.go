package watchrunner

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aaronromeo/mailtriage/internal/imap/sessionmgr"
	"github.com/aaronromeo/mailtriage/internal/message"
)

const DefaultMailbox = "INBOX"

type State string

const (
	Bootstrapping State = "bootstrapping"
	FullScan      State = "full_scan"
	Idling        State = "idling"
	Resuming      State = "resuming"
	Scanning      State = "scanning"
	Stopped       State = "stopped"
)

// Progress is what the runner reports on every state transition.
type Progress struct {
	State     State
	Watermark message.Watermark
	Err       error
}

type Option func(*Runner)

func WithMailbox(mailbox string) Option {
	return func(r *Runner) {
		r.mailbox = mailbox
	}
}

func WithKeepalive(d time.Duration) Option {
	return func(r *Runner) {
		r.keepalive = d
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

func WithReporter(fn func(Progress)) Option {
	return func(r *Runner) {
		r.report = fn
	}
}

// Runner owns the watermark and walks the bootstrap, full scan and
// idle/resume cycle over a single session.
type Runner struct {
	session Session
	syncer  Syncer

	mailbox   string
	keepalive time.Duration
	log       *slog.Logger
	report    func(Progress)

	wm message.Watermark
}

func New(session Session, syncer Syncer, opts ...Option) *Runner {
	r := &Runner{
		session:   session,
		syncer:    syncer,
		mailbox:   DefaultMailbox,
		keepalive: sessionmgr.DefaultKeepalive,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if strings.TrimSpace(r.mailbox) == "" {
		r.mailbox = DefaultMailbox
	}
	if r.keepalive <= 0 {
		r.keepalive = sessionmgr.DefaultKeepalive
	}
	return r
}

// Watermark returns the last stored watermark.
func (r *Runner) Watermark() message.Watermark {
	return r.wm
}

// Run bootstraps, sweeps the mailbox once and then waits for changes until
// ctx is done or an operation fails. Cancellation is a clean stop.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.Sweep(ctx); err != nil {
		return r.stop(ctx, err)
	}

	for {
		r.enter(Idling, nil)
		if err := r.session.WaitForChange(ctx, r.keepalive); err != nil {
			return r.stop(ctx, err)
		}

		r.enter(Resuming, nil)
		rangeStart, force, err := r.resume(ctx)
		if err != nil {
			return r.stop(ctx, err)
		}

		r.enter(Scanning, nil)
		if err := r.scan(ctx, rangeStart, force); err != nil {
			return r.stop(ctx, err)
		}
	}
}

// Sweep bootstraps and runs a single full pass over the mailbox.
func (r *Runner) Sweep(ctx context.Context) error {
	r.enter(Bootstrapping, nil)
	if err := r.bootstrap(ctx); err != nil {
		return err
	}

	r.enter(FullScan, nil)
	return r.scan(ctx, 1, true)
}

func (r *Runner) bootstrap(ctx context.Context) error {
	if caps := r.session.Capabilities(); len(caps) > 0 {
		names := make([]string, 0, len(caps))
		for c := range caps {
			names = append(names, string(c))
		}
		sort.Strings(names)
		r.log.Debug("server capabilities", "capabilities", names)
	}

	folders, err := r.session.ListFolders(ctx, "*")
	if err != nil {
		return err
	}
	r.log.Info("folders", "count", len(folders), "names", folders)

	selection, err := r.session.SelectMailbox(ctx, r.mailbox)
	if err != nil {
		return err
	}
	r.wm = message.Watermark{Generation: selection.UIDValidity}
	r.log.Info("selected mailbox",
		"mailbox", r.mailbox,
		"messages", selection.NumMessages,
		"uid_validity", selection.UIDValidity,
		"uid_next", uint32(selection.UIDNext),
	)
	return nil
}

// resume re-selects the mailbox and decides the next scan. A changed
// UIDVALIDITY invalidates every UID seen so far.
func (r *Runner) resume(ctx context.Context) (uint32, bool, error) {
	selection, err := r.session.SelectMailbox(ctx, r.mailbox)
	if err != nil {
		return 0, false, err
	}

	if selection.UIDValidity != r.wm.Generation {
		r.log.Warn("mailbox generation changed",
			"mailbox", r.mailbox,
			"previous", r.wm.Generation,
			"current", selection.UIDValidity,
		)
		r.wm = message.Watermark{Generation: selection.UIDValidity}
		return 1, true, nil
	}

	start := r.wm.Next
	if start == 0 {
		start = 1
	}
	return start, false, nil
}

func (r *Runner) scan(ctx context.Context, rangeStart uint32, force bool) error {
	wm, err := r.syncer.Sync(ctx, rangeStart, force, r.wm)
	if wm.Generation == r.wm.Generation && wm.Next > r.wm.Next {
		r.wm = wm
	}
	if err != nil {
		return err
	}
	r.log.Debug("stored watermark", "watermark", r.wm.Next, "generation", r.wm.Generation)
	return nil
}

func (r *Runner) stop(ctx context.Context, err error) error {
	if ctx.Err() != nil && (IsBenignIdleError(err) || errors.Is(err, ctx.Err())) {
		r.log.Info("stopping", "reason", ctx.Err())
		r.enter(Stopped, nil)
		return nil
	}
	r.log.Error("watch loop failed", "error", err)
	r.enter(Stopped, err)
	return err
}

func (r *Runner) enter(state State, err error) {
	r.log.Debug("state", "state", string(state))
	if r.report != nil {
		r.report(Progress{State: state, Watermark: r.wm, Err: err})
	}
}

// IsBenignIdleError reports errors that only mean the connection was torn
// down underneath a pending IDLE.
func IsBenignIdleError(err error) bool {
	if err == nil {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}
