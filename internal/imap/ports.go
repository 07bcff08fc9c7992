package imap

import (
	"github.com/aaronromeo/mailtriage/internal/imap/actions"
	"github.com/aaronromeo/mailtriage/internal/imap/folders"
	"github.com/aaronromeo/mailtriage/internal/imap/selectors"
	"github.com/aaronromeo/mailtriage/internal/imap/sessionmgr"
)

// Session is everything the agent needs from one logged-in connection.
type Session interface {
	sessionmgr.ClientConnector
	folders.FolderManager
	selectors.ClientSelectors
	actions.Actions
}

var _ Session = (*Client)(nil)
