package imap

import (
	"github.com/aaronromeo/mailtriage/internal/imap/actions"
	"github.com/aaronromeo/mailtriage/internal/imap/folders"
	"github.com/aaronromeo/mailtriage/internal/imap/selectors"
	"github.com/aaronromeo/mailtriage/internal/imap/sessionmgr"
)

// Client is the single mail session used by the triage agent.
type Client struct {
	*sessionmgr.IMAPConnector
	*folders.IMAPFolderManager
	*actions.IMAPActionManager
	*selectors.IMAPSelectorManager
}

func New(opts ...sessionmgr.Option) *Client {
	session := sessionmgr.NewClientConnector(opts...)
	client := &Client{
		session,
		folders.New(session),
		actions.New(session),
		selectors.New(session),
	}
	return client
}
