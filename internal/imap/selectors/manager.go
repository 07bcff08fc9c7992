package selectors

import (
	"context"
	"io"
	"strings"

	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
	"github.com/pkg/errors"

	"github.com/aaronromeo/mailtriage/internal/imap/base"
	"github.com/aaronromeo/mailtriage/internal/message"
)

type ClientSelectors interface {
	SelectMailbox(ctx context.Context, mailbox string) (*imap.SelectData, error)
	FetchHeaders(ctx context.Context, start uint32, fn func(message.Raw) error) error
}

// Interface to initialize the manager
type ClientProvider interface {
	IMAPClient() *giimapclient.Client
}

type IMAPSelectorManager struct {
	provider func() *giimapclient.Client
}

func New(provider ClientProvider) *IMAPSelectorManager {
	return &IMAPSelectorManager{provider: provider.IMAPClient}
}

// SelectMailbox selects a mailbox and returns its metadata, including
// UIDVALIDITY.
func (c *IMAPSelectorManager) SelectMailbox(ctx context.Context, mailbox string) (*imap.SelectData, error) {
	if c.provider == nil || c.provider() == nil {
		return nil, base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(mailbox) == "" {
		return nil, errors.New("mailbox is required")
	}
	data, err := c.provider().Select(mailbox, nil).Wait()
	if err != nil {
		return nil, errors.Wrapf(err, "select %q", mailbox)
	}
	return data, nil
}

// FetchHeaders streams the header block of every message with UID >= start
// in the selected mailbox, in server order. The server may also return the
// highest-UID message when start exceeds it; callers filter on the UID.
func (c *IMAPSelectorManager) FetchHeaders(ctx context.Context, start uint32, fn func(message.Raw) error) error {
	if c.provider == nil || c.provider() == nil {
		return base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if start == 0 {
		start = 1
	}

	var uidSet imap.UIDSet
	uidSet.AddRange(imap.UID(start), 0)

	headerSection := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierHeader,
		Peek:      true,
	}
	fetchOptions := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{headerSection},
	}

	fetchCmd := c.provider().Fetch(uidSet, fetchOptions)
	for {
		if err := ctx.Err(); err != nil {
			_ = fetchCmd.Close()
			return err
		}

		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		var raw message.Raw
		for {
			item := msg.Next()
			if item == nil {
				break
			}
			switch data := item.(type) {
			case giimapclient.FetchItemDataUID:
				raw.UID = uint32(data.UID)
			case giimapclient.FetchItemDataBodySection:
				if data.Literal == nil {
					continue
				}
				b, err := io.ReadAll(data.Literal)
				if err != nil {
					_ = fetchCmd.Close()
					return errors.Wrap(err, "read header literal")
				}
				raw.Header = b
			}
		}
		if raw.UID == 0 {
			continue
		}

		if err := fn(raw); err != nil {
			_ = fetchCmd.Close()
			return err
		}
	}

	if err := fetchCmd.Close(); err != nil {
		return errors.Wrapf(err, "fetch uid %d:*", start)
	}
	return nil
}
