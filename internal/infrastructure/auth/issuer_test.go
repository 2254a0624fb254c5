package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	redismocks "github.com/avekens/threadlens/internal/infrastructure/redis/mocks"
	"github.com/avekens/threadlens/internal/models"
	repositorymocks "github.com/avekens/threadlens/internal/repository/mocks"
	pkgerrors "github.com/avekens/threadlens/pkg/errors"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type prefixMatcher string

func (p prefixMatcher) Matches(x interface{}) bool {
	s, ok := x.(string)
	return ok && strings.HasPrefix(s, string(p))
}

func (p prefixMatcher) String() string {
	return "has prefix " + string(p)
}

func testUser() *models.User {
	return &models.User{
		UID:        uuid.MustParse("8f7c4f34-9d15-4d6a-8c3e-0a1c6f2a9a11"),
		Name:       "Test User",
		Email:      "test@example.com",
		Role:       models.RoleUser,
		IsVerified: true,
		CreatedAt:  time.Now(),
	}
}

func TestIssuer_IssuePair(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := redismocks.NewMockRedisClient(ctrl)
	userRepo := repositorymocks.NewMockUserRepository(ctrl)
	codec := NewCodec("secret")
	issuer := NewIssuer(codec, store, userRepo, 10*time.Minute, 7*24*time.Hour)

	ctx := context.Background()
	user := testUser()
	uid := user.UID.String()

	userRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	store.EXPECT().Set(gomock.Any(), prefixMatcher(uid+":access:"), gomock.Any(), 10*time.Minute).Return(nil)
	store.EXPECT().Set(gomock.Any(), prefixMatcher(uid+":refresh:"), gomock.Any(), 7*24*time.Hour).Return(nil)
	store.EXPECT().Set(gomock.Any(), prefixMatcher(uid+":refresh_to_access:"), gomock.Any(), 7*24*time.Hour).Return(nil)

	pair, err := issuer.IssuePair(ctx, user.Email)
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	access, err := codec.Decode(pair.AccessToken)
	assert.NoError(t, err)
	refresh, err := codec.Decode(pair.RefreshToken)
	assert.NoError(t, err)

	assert.False(t, access.Refresh)
	assert.True(t, refresh.Refresh)
	assert.Equal(t, user.Email, access.User.Email)
	assert.Equal(t, user.Role, access.User.Role)
	assert.Equal(t, access.User, refresh.User)
	// independent jtis per token
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestIssuer_IssuePair_UserNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := redismocks.NewMockRedisClient(ctrl)
	userRepo := repositorymocks.NewMockUserRepository(ctrl)
	issuer := NewIssuer(NewCodec("secret"), store, userRepo, time.Minute, time.Hour)

	userRepo.EXPECT().GetByEmail(gomock.Any(), "ghost@example.com").Return(nil, pkgerrors.ErrUserNotFound)

	pair, err := issuer.IssuePair(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
	assert.Nil(t, pair)
}

func TestIssuer_IssuePair_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := redismocks.NewMockRedisClient(ctrl)
	userRepo := repositorymocks.NewMockUserRepository(ctrl)
	issuer := NewIssuer(NewCodec("secret"), store, userRepo, time.Minute, time.Hour)

	user := testUser()
	userRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	store.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("store down"))

	pair, err := issuer.IssuePair(context.Background(), user.Email)
	assert.Error(t, err)
	// no partially issued pair is handed out
	assert.Nil(t, pair)
}
