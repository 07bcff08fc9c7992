package sessionmgr

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
	"github.com/pkg/errors"

	"github.com/aaronromeo/mailtriage/internal/imap/base"
)

// DefaultKeepalive re-arms IDLE before the 30 minute server timeout of RFC 2177.
const DefaultKeepalive = 25 * time.Minute

type Option func(*IMAPConnector)

type ServerConnector interface {
	Connect() error
	Close() error

	IMAPClient() *giimapclient.Client
}

type ClientConnector interface {
	ServerConnector

	Capabilities() imap.CapSet
	WaitForChange(ctx context.Context, keepalive time.Duration) error
}

type IMAPConnector struct {
	Addr      string
	Username  string
	Password  string
	TLSConfig *tls.Config

	updates chan struct{}

	base.State
}

func WithAddr(a string) Option {
	return func(c *IMAPConnector) {
		c.Addr = a
	}
}

func WithCreds(username string, password string) Option {
	return func(c *IMAPConnector) {
		c.Username = username
		c.Password = password
	}
}

func WithTLSConfig(config *tls.Config) Option {
	return func(state *IMAPConnector) {
		state.TLSConfig = config
	}
}

func NewClientConnector(opts ...Option) *IMAPConnector {
	c := &IMAPConnector{
		updates: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *IMAPConnector) IMAPClient() *giimapclient.Client {
	return c.Client
}

// Connect establishes the TLS connection and logs in.
func (c *IMAPConnector) Connect() error {
	if err := validateDeps(c); err != nil {
		return err
	}
	if c.updates == nil {
		c.updates = make(chan struct{}, 1)
	}

	options := &giimapclient.Options{
		TLSConfig: c.TLSConfig,
		UnilateralDataHandler: &giimapclient.UnilateralDataHandler{
			Mailbox: func(data *giimapclient.UnilateralDataMailbox) {
				if data.NumMessages == nil {
					return
				}
				c.notify()
			},
		},
	}

	client, err := giimapclient.DialTLS(c.Addr, options)
	if err != nil {
		return errors.Wrapf(err, "dial %s", c.Addr)
	}

	if err := client.Login(c.Username, c.Password).Wait(); err != nil {
		_ = client.Close()
		return errors.Wrap(err, "login")
	}

	c.Client = client
	return nil
}

// Capabilities returns the capabilities advertised after login.
func (c *IMAPConnector) Capabilities() imap.CapSet {
	if c.Client == nil {
		return nil
	}
	return c.Client.Caps()
}

// WaitForChange issues IDLE and blocks until the server reports a new message
// count, the keepalive elapses or ctx is done. Only the last case returns an
// error other than a protocol failure.
func (c *IMAPConnector) WaitForChange(ctx context.Context, keepalive time.Duration) error {
	if c.Client == nil {
		return base.ErrNotConnected
	}
	if keepalive <= 0 {
		keepalive = DefaultKeepalive
	}

	idleCmd, err := c.Client.Idle()
	if err != nil {
		return errors.Wrap(err, "start idle")
	}

	timer := time.NewTimer(keepalive)
	defer timer.Stop()

	select {
	case <-c.updates:
	case <-timer.C:
	case <-ctx.Done():
		_ = idleCmd.Close()
		_ = idleCmd.Wait()
		return ctx.Err()
	}

	if err := idleCmd.Close(); err != nil {
		return errors.Wrap(err, "stop idle")
	}
	if err := idleCmd.Wait(); err != nil {
		return errors.Wrap(err, "idle")
	}
	return nil
}

// Close logs out and clears the connection.
func (c *IMAPConnector) Close() error {
	if c.Client == nil {
		return nil
	}
	err := c.Client.Logout().Wait()
	_ = c.Client.Close()
	c.Client = nil
	return err
}

func (c *IMAPConnector) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

func validateDeps(state *IMAPConnector) error {
	if strings.TrimSpace(state.Addr) == "" {
		return errors.New("IMAP address is required")
	}
	if strings.TrimSpace(state.Username) == "" || strings.TrimSpace(state.Password) == "" {
		return errors.New("IMAP credentials are required")
	}

	return nil
}
