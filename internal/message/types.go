package message

// Identity names a message on the server. A UID is only meaningful within the
// mailbox generation (UIDVALIDITY) it was assigned under.
type Identity struct {
	UID        uint32
	Generation uint32
}

// Raw is a single fetched message: its UID and the raw RFC 5322 header block.
type Raw struct {
	UID    uint32
	Header []byte
}

// Header is the canonical record derived from a fetched header block.
// From is never empty. To is empty when the message carries no To field or
// when no recipient in it matched a configured pattern.
type Header struct {
	Identity Identity
	From     string
	FromName string
	To       string
	ToName   string
	Cc       string
	Bcc      string
	Subject  string
	Date     string
}

// Watermark is the next UID expected in a given mailbox generation.
type Watermark struct {
	Next       uint32
	Generation uint32
}

// Advance returns the watermark moved past uid. It never moves backwards.
func (w Watermark) Advance(uid uint32) Watermark {
	if uid+1 > w.Next {
		w.Next = uid + 1
	}
	return w
}
