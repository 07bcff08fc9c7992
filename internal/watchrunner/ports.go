package watchrunner

//go:generate mockgen -destination=mock_session_test.go -package=watchrunner . Session

import (
	"context"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/aaronromeo/mailtriage/internal/message"
)

// Session is the part of the mail session the loop drives directly. Fetches
// and moves go through the Syncer.
type Session interface {
	Capabilities() imap.CapSet
	ListFolders(ctx context.Context, pattern string) ([]string, error)
	SelectMailbox(ctx context.Context, mailbox string) (*imap.SelectData, error)
	WaitForChange(ctx context.Context, keepalive time.Duration) error
}

type Syncer interface {
	Sync(ctx context.Context, rangeStart uint32, force bool, wm message.Watermark) (message.Watermark, error)
}
