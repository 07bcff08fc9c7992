package folders

import (
	"context"
	"strings"

	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
	"github.com/pkg/errors"

	"github.com/aaronromeo/mailtriage/internal/imap/base"
)

type FolderManager interface {
	ListFolders(ctx context.Context, pattern string) ([]string, error)
	CreateFolder(ctx context.Context, name string) error
}

// Interface to initialize the manager
type ClientProvider interface {
	IMAPClient() *giimapclient.Client
}

type IMAPFolderManager struct {
	provider func() *giimapclient.Client
}

func New(provider ClientProvider) *IMAPFolderManager {
	return &IMAPFolderManager{provider: provider.IMAPClient}
}

// ListFolders returns the mailbox names matching pattern ("*" when empty).
func (m *IMAPFolderManager) ListFolders(ctx context.Context, pattern string) ([]string, error) {
	if m.provider == nil || m.provider() == nil {
		return nil, base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(pattern) == "" {
		pattern = "*"
	}

	data, err := m.provider().List("", pattern, nil).Collect()
	if err != nil {
		return nil, errors.Wrapf(err, "list %q", pattern)
	}

	names := make([]string, 0, len(data))
	for _, mbox := range data {
		names = append(names, mbox.Mailbox)
	}
	return names, nil
}

// CreateFolder creates a mailbox. A server refusal because the mailbox is
// already there is reported as base.ErrFolderExists.
func (m *IMAPFolderManager) CreateFolder(ctx context.Context, name string) error {
	if m.provider == nil || m.provider() == nil {
		return base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("folder name is required")
	}

	err := m.provider().Create(name, nil).Wait()
	if err == nil {
		return nil
	}
	if IsAlreadyExists(err) {
		return base.ErrFolderExists
	}
	return errors.Wrapf(err, "create %q", name)
}

// IsAlreadyExists recognises the ALREADYEXISTS response code, and plain NO
// replies that say so for servers without RFC 5530 codes.
func IsAlreadyExists(err error) bool {
	var imapErr *imap.Error
	if !errors.As(err, &imapErr) {
		return false
	}
	if imapErr.Code == imap.ResponseCodeAlreadyExists {
		return true
	}
	return imapErr.Type == imap.StatusResponseTypeNo &&
		imapErr.Code == "" &&
		strings.Contains(strings.ToLower(imapErr.Text), "exist")
}
