package mover

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aaronromeo/mailtriage/internal/imap/base"
	"github.com/aaronromeo/mailtriage/internal/message"
)

func TestMoveRunsProtocolInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	session := NewMockSession(ctrl)
	ctx := context.Background()

	gomock.InOrder(
		session.EXPECT().CreateFolder(ctx, "Special/extra").Return(nil),
		session.EXPECT().CopyUID(ctx, uint32(12), "Special/extra").Return(nil),
		session.EXPECT().FlagDeletedUID(ctx, uint32(12)).Return(nil),
		session.EXPECT().Expunge(ctx).Return(nil),
	)

	err := New(session, nil).Move(ctx, message.Identity{UID: 12, Generation: 1}, "Special/extra")
	assert.NoError(t, err)
}

func TestMoveFolderAlreadyExistsIsSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	session := NewMockSession(ctrl)
	ctx := context.Background()

	gomock.InOrder(
		session.EXPECT().CreateFolder(ctx, "Cc").Return(base.ErrFolderExists),
		session.EXPECT().CopyUID(ctx, uint32(3), "Cc").Return(nil),
		session.EXPECT().FlagDeletedUID(ctx, uint32(3)).Return(nil),
		session.EXPECT().Expunge(ctx).Return(nil),
	)

	err := New(session, nil).Move(ctx, message.Identity{UID: 3}, "Cc")
	assert.NoError(t, err)
}

func TestMoveFolderCreateFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	session := NewMockSession(ctrl)
	ctx := context.Background()

	denied := errors.New("permission denied")
	session.EXPECT().CreateFolder(ctx, "UOS").Return(denied)

	err := New(session, nil).Move(ctx, message.Identity{UID: 9}, "UOS")
	require.Error(t, err)

	var moveErr *MoveError
	require.True(t, errors.As(err, &moveErr))
	assert.Equal(t, StepCreate, moveErr.Step)

	var createErr *FolderCreateError
	require.True(t, errors.As(err, &createErr))
	assert.Equal(t, "UOS", createErr.Folder)
	assert.ErrorIs(t, err, denied)
}

func TestMoveStopsAtFailingStep(t *testing.T) {
	boom := errors.New("connection reset")

	cases := []struct {
		name   string
		expect func(s *MockSession, ctx context.Context)
		step   Step
	}{
		{
			name: "copy",
			expect: func(s *MockSession, ctx context.Context) {
				s.EXPECT().CreateFolder(ctx, "Cc").Return(nil)
				s.EXPECT().CopyUID(ctx, uint32(5), "Cc").Return(boom)
			},
			step: StepCopy,
		},
		{
			name: "flag",
			expect: func(s *MockSession, ctx context.Context) {
				s.EXPECT().CreateFolder(ctx, "Cc").Return(nil)
				s.EXPECT().CopyUID(ctx, uint32(5), "Cc").Return(nil)
				s.EXPECT().FlagDeletedUID(ctx, uint32(5)).Return(boom)
			},
			step: StepFlag,
		},
		{
			name: "expunge",
			expect: func(s *MockSession, ctx context.Context) {
				s.EXPECT().CreateFolder(ctx, "Cc").Return(nil)
				s.EXPECT().CopyUID(ctx, uint32(5), "Cc").Return(nil)
				s.EXPECT().FlagDeletedUID(ctx, uint32(5)).Return(nil)
				s.EXPECT().Expunge(ctx).Return(boom)
			},
			step: StepExpunge,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			session := NewMockSession(ctrl)
			ctx := context.Background()
			tc.expect(session, ctx)

			err := New(session, nil).Move(ctx, message.Identity{UID: 5}, "Cc")
			var moveErr *MoveError
			require.True(t, errors.As(err, &moveErr))
			assert.Equal(t, tc.step, moveErr.Step)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestDryRunTouchesNothing(t *testing.T) {
	err := DryRun{}.Move(context.Background(), message.Identity{UID: 1}, "Cc")
	assert.NoError(t, err)
}
