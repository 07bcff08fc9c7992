package mover

//go:generate mockgen -destination=mock_session_test.go -package=mover . Session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aaronromeo/mailtriage/internal/imap/base"
	"github.com/aaronromeo/mailtriage/internal/message"
)

var tracer = otel.Tracer("github.com/aaronromeo/mailtriage/internal/mover")

type Step string

const (
	StepCreate  Step = "create"
	StepCopy    Step = "copy"
	StepFlag    Step = "flag"
	StepExpunge Step = "expunge"
)

// Session is the slice of the mail session the move protocol needs.
type Session interface {
	CreateFolder(ctx context.Context, name string) error
	CopyUID(ctx context.Context, uid uint32, destination string) error
	FlagDeletedUID(ctx context.Context, uid uint32) error
	Expunge(ctx context.Context) error
}

// FolderCreateError reports a destination that could not be created for a
// reason other than already existing.
type FolderCreateError struct {
	Folder string
	Err    error
}

func (e *FolderCreateError) Error() string {
	return fmt.Sprintf("create folder %q: %v", e.Folder, e.Err)
}

func (e *FolderCreateError) Unwrap() error {
	return e.Err
}

// MoveError reports the step at which a move was abandoned.
type MoveError struct {
	UID         uint32
	Destination string
	Step        Step
	Err         error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move uid %d to %q: %s: %v", e.UID, e.Destination, e.Step, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// Mover relocates messages with create, copy, flag and expunge, in that order.
// It is not atomic: an interruption after the copy leaves a duplicate in the
// destination, never a lost message.
type Mover struct {
	session Session
	log     *slog.Logger
}

func New(session Session, log *slog.Logger) *Mover {
	if log == nil {
		log = slog.Default()
	}
	return &Mover{session: session, log: log}
}

func (m *Mover) Move(ctx context.Context, id message.Identity, destination string) (err error) {
	ctx, span := tracer.Start(ctx, "mover.Move", trace.WithAttributes(
		attribute.Int64("message.uid", int64(id.UID)),
		attribute.String("destination", destination),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "move")
		}
		span.End()
	}()

	m.log.Info("moving message", "uid", id.UID, "destination", destination)

	if err := m.session.CreateFolder(ctx, destination); err != nil && !errors.Is(err, base.ErrFolderExists) {
		return &MoveError{
			UID:         id.UID,
			Destination: destination,
			Step:        StepCreate,
			Err:         &FolderCreateError{Folder: destination, Err: err},
		}
	}

	if err := m.session.CopyUID(ctx, id.UID, destination); err != nil {
		return &MoveError{UID: id.UID, Destination: destination, Step: StepCopy, Err: err}
	}
	if err := m.session.FlagDeletedUID(ctx, id.UID); err != nil {
		return &MoveError{UID: id.UID, Destination: destination, Step: StepFlag, Err: err}
	}
	if err := m.session.Expunge(ctx); err != nil {
		return &MoveError{UID: id.UID, Destination: destination, Step: StepExpunge, Err: err}
	}
	return nil
}

// DryRun logs the move it would have made and touches nothing.
type DryRun struct {
	Log *slog.Logger
}

func (d DryRun) Move(_ context.Context, id message.Identity, destination string) error {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("dry run: would move message", "uid", id.UID, "destination", destination)
	return nil
}
