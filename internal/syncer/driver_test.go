package syncer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aaronromeo/mailtriage/internal/address"
	"github.com/aaronromeo/mailtriage/internal/header"
	"github.com/aaronromeo/mailtriage/internal/matchers"
	"github.com/aaronromeo/mailtriage/internal/message"
	"github.com/aaronromeo/mailtriage/internal/rules"
)

// mailbox is an in-memory Fetcher over a fixed set of messages.
type mailbox struct {
	msgs  []message.Raw
	calls []uint32
}

func (m *mailbox) FetchHeaders(_ context.Context, start uint32, fn func(message.Raw) error) error {
	m.calls = append(m.calls, start)
	for _, raw := range m.msgs {
		if raw.UID < start {
			continue
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
	return nil
}

func rawMessage(uid uint32, from, to string) message.Raw {
	hdr := fmt.Sprintf("From: %s\r\n", from)
	if to != "" {
		hdr += fmt.Sprintf("To: %s\r\n", to)
	}
	hdr += fmt.Sprintf("Subject: message %d\r\nDate: Mon, 2 Jan 2006 15:04:05 +0000\r\n\r\n", uid)
	return message.Raw{UID: uid, Header: []byte(hdr)}
}

func newExtractor(t *testing.T, exprs ...string) *header.Extractor {
	t.Helper()
	if len(exprs) == 0 {
		exprs = []string{`@mydomain\.com$`}
	}
	patterns, err := matchers.Compile(exprs)
	require.NoError(t, err)
	return header.NewExtractor(address.NewResolver(patterns, nil), nil)
}

func newEngine() *rules.Engine {
	return rules.Default(rules.Options{
		Domains:         rules.DefaultDomains,
		GeneralAccounts: []string{"me", "team"},
	})
}

func TestSyncFullScanMovesInServerOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	mover := NewMockMover(ctrl)
	ctx := context.Background()

	box := &mailbox{msgs: []message.Raw{
		rawMessage(1, "alice@uos.ac.kr", "me@mydomain.com"),
		rawMessage(2, "bob@other.com", ""),
		rawMessage(3, "carol@other.com", "team@mydomain.com"),
		rawMessage(4, "dave@other.com", "team@mydomain.com, extra@mydomain.com"),
	}}

	gomock.InOrder(
		mover.EXPECT().Move(gomock.Any(), message.Identity{UID: 1, Generation: 7}, "UOS").Return(nil),
		mover.EXPECT().Move(gomock.Any(), message.Identity{UID: 2, Generation: 7}, "Cc").Return(nil),
		mover.EXPECT().Move(gomock.Any(), message.Identity{UID: 3, Generation: 7}, "Cc").Return(nil),
		mover.EXPECT().Move(gomock.Any(), message.Identity{UID: 4, Generation: 7}, "Special/extra").Return(nil),
	)

	var stats Stats
	extractor := newExtractor(t, `^(me|extra)@mydomain\.com$`)
	d := New(box, extractor, newEngine(), mover, WithReporter(func(s Stats) { stats = s }))

	wm, err := d.Sync(ctx, 1, true, message.Watermark{Generation: 7})
	require.NoError(t, err)
	assert.Equal(t, message.Watermark{Next: 5, Generation: 7}, wm)
	assert.Equal(t, Stats{Observed: 4, Moved: 4}, stats)
}

func TestSyncGeneralAccountLeftInPlace(t *testing.T) {
	ctrl := gomock.NewController(t)
	mover := NewMockMover(ctrl)

	box := &mailbox{msgs: []message.Raw{
		rawMessage(10, "carol@other.com", "me@mydomain.com"),
	}}

	var stats Stats
	d := New(box, newExtractor(t), newEngine(), mover, WithReporter(func(s Stats) { stats = s }))
	wm, err := d.Sync(context.Background(), 1, true, message.Watermark{})
	require.NoError(t, err)
	assert.Equal(t, uint32(11), wm.Next)
	assert.Equal(t, Stats{Observed: 1, Skipped: 1}, stats)
}

func TestSyncIncrementalSkipsSeenUIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := NewMockFetcher(ctrl)
	mover := NewMockMover(ctrl)

	// The server answers n:* with its highest message even when n is past it.
	fetcher.EXPECT().FetchHeaders(gomock.Any(), uint32(9), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uint32, fn func(message.Raw) error) error {
			return fn(rawMessage(8, "bob@other.com", ""))
		})

	d := New(fetcher, newExtractor(t), newEngine(), mover)
	wm, err := d.Sync(context.Background(), 9, false, message.Watermark{Next: 9, Generation: 1})
	require.NoError(t, err)
	assert.Equal(t, message.Watermark{Next: 9, Generation: 1}, wm)
}

func TestSyncIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	mover := NewMockMover(ctrl)
	ctx := context.Background()

	box := &mailbox{msgs: []message.Raw{
		rawMessage(3, "bob@other.com", ""),
		rawMessage(4, "carol@other.com", "sales@mydomain.com"),
	}}
	mover.EXPECT().Move(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	d := New(box, newExtractor(t), newEngine(), mover)
	first, err := d.Sync(ctx, 1, false, message.Watermark{Next: 1})
	require.NoError(t, err)
	assert.Equal(t, uint32(5), first.Next)

	var stats Stats
	d = New(box, newExtractor(t), newEngine(), mover, WithReporter(func(s Stats) { stats = s }))
	second, err := d.Sync(ctx, first.Next, false, first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Zero(t, stats.Observed)
}

func TestSyncWatermarkAdvancesWhenMoveFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	mover := NewMockMover(ctrl)

	box := &mailbox{msgs: []message.Raw{
		rawMessage(20, "bob@other.com", ""),
		rawMessage(21, "alice@uos.ac.kr", ""),
		rawMessage(22, "erin@x.com", ""),
	}}

	boom := errors.New("copy failed")
	gomock.InOrder(
		mover.EXPECT().Move(gomock.Any(), message.Identity{UID: 20}, "Cc").Return(nil),
		mover.EXPECT().Move(gomock.Any(), message.Identity{UID: 21}, "UOS").Return(boom),
	)

	var moved []uint32
	d := New(box, newExtractor(t), newEngine(), mover, WithObserver(func(h message.Header, _ rules.Decision) {
		moved = append(moved, h.Identity.UID)
	}))
	wm, err := d.Sync(context.Background(), 20, false, message.Watermark{Next: 20})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, uint32(23), wm.Next)
	assert.Equal(t, []uint32{20}, moved)
}

func TestSyncMalformedSenderAbortsBeforeMoving(t *testing.T) {
	ctrl := gomock.NewController(t)
	mover := NewMockMover(ctrl)

	box := &mailbox{msgs: []message.Raw{
		rawMessage(1, "bob@other.com", ""),
		{UID: 2, Header: []byte("To: me@mydomain.com\r\n\r\n")},
		rawMessage(3, "carol@other.com", ""),
	}}

	d := New(box, newExtractor(t), newEngine(), mover)
	wm, err := d.Sync(context.Background(), 1, true, message.Watermark{})
	require.Error(t, err)

	var missing *header.MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, uint32(2), missing.UID)
	assert.Equal(t, uint32(2), wm.Next)
}

func TestSyncFetchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := NewMockFetcher(ctrl)
	mover := NewMockMover(ctrl)

	boom := errors.New("connection reset")
	fetcher.EXPECT().FetchHeaders(gomock.Any(), uint32(1), gomock.Any()).Return(boom)

	d := New(fetcher, newExtractor(t), newEngine(), mover)
	wm, err := d.Sync(context.Background(), 1, true, message.Watermark{Next: 4, Generation: 2})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, message.Watermark{Next: 4, Generation: 2}, wm)
}
