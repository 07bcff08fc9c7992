package header

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"

	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"

	"github.com/aaronromeo/mailtriage/internal/address"
	"github.com/aaronromeo/mailtriage/internal/message"
)

// MissingError reports a mandatory header field absent from a message.
type MissingError struct {
	Field string
	UID   uint32
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("message uid %d: missing %s header", e.UID, e.Field)
}

// Extractor turns fetched header blocks into canonical records.
type Extractor struct {
	resolver *address.Resolver
	log      *slog.Logger
}

func NewExtractor(resolver *address.Resolver, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{resolver: resolver, log: log}
}

// Extract parses raw and resolves its sender and matching recipient.
func (e *Extractor) Extract(raw []byte, id message.Identity) (message.Header, error) {
	h, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil && h.Len() == 0 {
		return message.Header{}, fmt.Errorf("message uid %d: read header: %w", id.UID, err)
	}
	hdr := mail.Header{Header: gomessage.Header{Header: h}}

	if !hdr.Has("From") {
		return message.Header{}, &MissingError{Field: "From", UID: id.UID}
	}
	from, err := e.resolver.Sender(hdr.Get("From"))
	if err != nil {
		return message.Header{}, fmt.Errorf("message uid %d: %w", id.UID, err)
	}

	var to address.Address
	if hdr.Has("To") {
		to = e.resolver.Recipient(hdr.Get("To"))
	}

	subject, err := hdr.Subject()
	if err != nil {
		e.log.Debug("subject not decoded", "uid", id.UID, "error", err)
	}
	if !hdr.Has("Subject") || !hdr.Has("Date") {
		e.log.Debug("header incomplete", "uid", id.UID, "subject", hdr.Has("Subject"), "date", hdr.Has("Date"))
	}

	return message.Header{
		Identity: id,
		From:     from.Addr,
		FromName: from.DisplayName(),
		To:       to.Addr,
		ToName:   to.DisplayName(),
		Cc:       hdr.Get("Cc"),
		Bcc:      hdr.Get("Bcc"),
		Subject:  subject,
		Date:     hdr.Get("Date"),
	}, nil
}
