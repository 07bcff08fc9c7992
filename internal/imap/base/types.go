package base

import (
	"errors"

	giimapclient "github.com/emersion/go-imap/v2/imapclient"
)

// ErrFolderExists is returned by folder creation when the server already has
// a mailbox with that name.
var ErrFolderExists = errors.New("folder already exists")

// ErrNotConnected is returned by every session operation before Connect.
var ErrNotConnected = errors.New("IMAP client is not connected")

type State struct {
	Client *giimapclient.Client
}
