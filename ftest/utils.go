package ftest

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	giimapserver "github.com/emersion/go-imap/v2/imapserver"
	giimapmemserver "github.com/emersion/go-imap/v2/imapserver/imapmemserver"
)

const (
	DefaultUser = "user@example.com"
	DefaultPass = "password"
)

// Message is appended to a mailbox of the test server. When Raw is set it is
// used verbatim; otherwise a minimal message is built from the other fields
// and empty fields are left out of the header.
type Message struct {
	Mailbox string
	From    string
	To      string
	Cc      string
	Subject string
	Body    string
	Raw     string
	Time    time.Time
}

// Server is an in-process TLS IMAP server backed by imapmemserver.
type Server struct {
	Addr string

	t    *testing.T
	user *giimapmemserver.User
}

// SetupIMAPServer starts a server with INBOX, the given extra mailboxes and
// messages. It is stopped when the test ends.
func SetupIMAPServer(t *testing.T, caps imap.CapSet, extraMailboxes []string, messages []Message) *Server {
	t.Helper()

	tlsConfig := testTLSConfig(t)
	mem := giimapmemserver.New()
	user := giimapmemserver.NewUser(DefaultUser, DefaultPass)
	mem.AddUser(user)

	if err := user.Create("INBOX", nil); err != nil {
		t.Fatalf("create mailbox: %v", err)
	}
	for _, mailbox := range extraMailboxes {
		if strings.TrimSpace(mailbox) == "" {
			continue
		}
		if err := user.Create(mailbox, nil); err != nil {
			t.Fatalf("create mailbox %q: %v", mailbox, err)
		}
	}

	srv := &Server{t: t, user: user}
	for _, msg := range messages {
		srv.Append(msg)
	}

	server := giimapserver.New(&giimapserver.Options{
		NewSession: func(*giimapserver.Conn) (giimapserver.Session, *giimapserver.GreetingData, error) {
			return mem.NewSession(), nil, nil
		},
		Caps:         caps,
		TLSConfig:    tlsConfig,
		InsecureAuth: true,
	})

	ln, err := tls.Listen("tcp", "127.0.0.1:0", tlsConfig)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	t.Cleanup(func() {
		_ = server.Close()
		_ = ln.Close()
		select {
		case <-errCh:
		default:
		}
	})

	srv.Addr = ln.Addr().String()
	return srv
}

// ClientTLSConfig accepts the server's self-signed certificate.
func ClientTLSConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true}
}

// Append delivers msg and returns its UID.
func (s *Server) Append(msg Message) uint32 {
	s.t.Helper()

	mailbox := strings.TrimSpace(msg.Mailbox)
	if mailbox == "" {
		mailbox = "INBOX"
	}
	appendTime := msg.Time
	if appendTime.IsZero() {
		appendTime = time.Now()
	}
	raw := msg.Raw
	if raw == "" {
		raw = sampleMessage(msg)
	}

	data, err := s.user.Append(mailbox, newLiteral(raw), &imap.AppendOptions{Time: appendTime})
	if err != nil {
		s.t.Fatalf("append message to %q: %v", mailbox, err)
	}
	return uint32(data.UID)
}

// Count returns the number of messages in mailbox, or -1 if it does not exist.
func (s *Server) Count(mailbox string) int {
	s.t.Helper()

	data, err := s.user.Status(mailbox, &imap.StatusOptions{NumMessages: true})
	if err != nil {
		return -1
	}
	if data.NumMessages == nil {
		return 0
	}
	return int(*data.NumMessages)
}

// Recreate deletes and recreates mailbox, which gives it a new UIDVALIDITY.
func (s *Server) Recreate(mailbox string) {
	s.t.Helper()

	if err := s.user.Delete(mailbox); err != nil {
		s.t.Fatalf("delete mailbox %q: %v", mailbox, err)
	}
	if err := s.user.Create(mailbox, nil); err != nil {
		s.t.Fatalf("create mailbox %q: %v", mailbox, err)
	}
}

type literalReader struct {
	*bytes.Reader
	size int64
}

func newLiteral(raw string) imap.LiteralReader {
	buf := []byte(raw)
	return &literalReader{
		Reader: bytes.NewReader(buf),
		size:   int64(len(buf)),
	}
}

func (lr *literalReader) Size() int64 {
	return lr.size
}

func sampleMessage(msg Message) string {
	builder := &strings.Builder{}
	writeField := func(key, value string) {
		if value == "" {
			return
		}
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(value)
		builder.WriteString("\r\n")
	}
	writeField("From", msg.From)
	writeField("To", msg.To)
	writeField("Cc", msg.Cc)
	writeField("Subject", msg.Subject)
	writeField("Date", time.Now().Format(time.RFC1123Z))
	builder.WriteString("\r\n")
	builder.WriteString(msg.Body)
	builder.WriteString("\r\n")
	return builder.String()
}

func testTLSConfig(t *testing.T) *tls.Config {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("generate serial: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: "localhost",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"imap"},
	}
}
