package room

import (
	"context"
	"errors"
	"testing"

	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/infrastructure/events"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/infrastructure/persistence/memory"
	"github.com/hilthontt/townhall/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func fixedTokens(tokens ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		t := tokens[i%len(tokens)]
		i++
		return t, nil
	}
}

func TestResolveMintsOnEmptyToken(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given
	uc := NewRoomUseCase(memory.NewRoomRepository(), events.NewNoopPublisher(), logger.NewNop()).(*roomUseCase)
	uc.newToken = fixedTokens("a1b2c3")

	// When
	room, err := uc.Resolve(ctx, "")

	// Then
	req.NoError(err)
	req.Equal("a1b2c3", room.Token)
	req.Equal("Room a1b2c3", room.Name)

	again, err := uc.Resolve(ctx, "a1b2c3")
	req.NoError(err)
	req.Equal(room.ID, again.ID)
}

func TestResolveUnknownTokenMintsFreshOne(t *testing.T) {
	req := require.New(t)

	uc := NewRoomUseCase(memory.NewRoomRepository(), events.NewNoopPublisher(), logger.NewNop())

	room, err := uc.Resolve(context.Background(), "0123456789ab")

	req.NoError(err)
	req.NotEqual("0123456789ab", room.Token)
	req.True(ValidToken(room.Token), "token %q", room.Token)
}

func TestResolveRetriesOnCollision(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given
	repo := memory.NewRoomRepository()
	req.NoError(repo.Create(ctx, &model.Room{ID: "existing", Token: "aaaaaaaaaaaa"}))

	uc := NewRoomUseCase(repo, events.NewNoopPublisher(), logger.NewNop()).(*roomUseCase)
	uc.newToken = fixedTokens("aaaaaaaaaaaa", "aaaaaaaaaaaa", "bbbbbbbbbbbb")

	// When
	room, err := uc.Resolve(ctx, "")

	// Then
	req.NoError(err)
	req.Equal("bbbbbbbbbbbb", room.Token)
}

func TestResolveGivesUpAfterRepeatedCollisions(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRoomRepository(ctrl)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(apperror.ErrDuplicateToken).Times(maxTokenAttempts)

	uc := NewRoomUseCase(repo, events.NewNoopPublisher(), logger.NewNop())
	_, err := uc.Resolve(context.Background(), "")

	req.ErrorIs(err, ErrTokenSpaceExhausted)
}

func TestResolveStorageFailure(t *testing.T) {
	storageDown := errors.New("server selection timeout")

	t.Run("lookup fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRoomRepository(ctrl)
		repo.EXPECT().GetByToken(gomock.Any(), "a1b2c3").Return(nil, storageDown).Times(1)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		uc := NewRoomUseCase(repo, events.NewNoopPublisher(), logger.NewNop())
		_, err := uc.Resolve(context.Background(), "a1b2c3")

		require.ErrorIs(t, err, storageDown)
	})

	t.Run("create fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRoomRepository(ctrl)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(storageDown).Times(1)

		uc := NewRoomUseCase(repo, events.NewNoopPublisher(), logger.NewNop())
		_, err := uc.Resolve(context.Background(), "")

		require.ErrorIs(t, err, storageDown)
	})
}

func TestGet(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	uc := NewRoomUseCase(memory.NewRoomRepository(), events.NewNoopPublisher(), logger.NewNop())

	_, err := uc.Get(ctx, "a1b2c3d4e5f6")
	req.ErrorIs(err, apperror.ErrNotFound)

	room, err := uc.Resolve(ctx, "")
	req.NoError(err)

	got, err := uc.Get(ctx, room.Token)
	req.NoError(err)
	req.Equal(room.ID, got.ID)
}

func TestGenerateToken(t *testing.T) {
	req := require.New(t)
	seen := map[string]bool{}
	for range 100 {
		token, err := generateToken()
		req.NoError(err)
		req.True(ValidToken(token))
		req.False(seen[token])
		seen[token] = true
	}
}
