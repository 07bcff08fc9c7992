package actions

import (
	"context"
	"strings"

	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
	"github.com/pkg/errors"

	"github.com/aaronromeo/mailtriage/internal/imap/base"
)

type Actions interface {
	CopyUID(ctx context.Context, uid uint32, destination string) error
	FlagDeletedUID(ctx context.Context, uid uint32) error
	Expunge(ctx context.Context) error
}

// Interface to initialize the manager
type ClientProvider interface {
	IMAPClient() *giimapclient.Client
}

type IMAPActionManager struct {
	provider func() *giimapclient.Client
}

func New(provider ClientProvider) *IMAPActionManager {
	return &IMAPActionManager{provider: provider.IMAPClient}
}

// CopyUID copies one message of the selected mailbox into destination.
func (c *IMAPActionManager) CopyUID(ctx context.Context, uid uint32, destination string) error {
	if c.provider == nil || c.provider() == nil {
		return base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(destination) == "" {
		return errors.New("destination mailbox is required")
	}

	if _, err := c.provider().Copy(imap.UIDSetNum(imap.UID(uid)), destination).Wait(); err != nil {
		return errors.Wrapf(err, "copy uid %d to %q", uid, destination)
	}
	return nil
}

// FlagDeletedUID adds \Deleted to one message of the selected mailbox.
func (c *IMAPActionManager) FlagDeletedUID(ctx context.Context, uid uint32) error {
	if c.provider == nil || c.provider() == nil {
		return base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	store := imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}
	if err := c.provider().Store(imap.UIDSetNum(imap.UID(uid)), &store, nil).Close(); err != nil {
		return errors.Wrapf(err, "flag uid %d deleted", uid)
	}
	return nil
}

// Expunge permanently removes every \Deleted message of the selected mailbox.
func (c *IMAPActionManager) Expunge(ctx context.Context) error {
	if c.provider == nil || c.provider() == nil {
		return base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.provider().Expunge().Close(); err != nil {
		return errors.Wrap(err, "expunge")
	}
	return nil
}
