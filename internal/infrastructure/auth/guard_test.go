package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	stderrors "errors"

	redismocks "github.com/avekens/threadlens/internal/infrastructure/redis/mocks"
	"github.com/avekens/threadlens/internal/models"
	repositorymocks "github.com/avekens/threadlens/internal/repository/mocks"
	pkgerrors "github.com/avekens/threadlens/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func signToken(t *testing.T, codec *Codec, user *models.User, jti string, refresh bool, ttl time.Duration) string {
	t.Helper()
	token, err := codec.Encode(&models.TokenClaims{
		User:    user.Safe(),
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	assert.NoError(t, err)
	return token
}

type guardFixture struct {
	codec    *Codec
	store    *redismocks.MockRedisClient
	userRepo *repositorymocks.MockUserRepository
	lastErr  error
}

func newGuardFixture(ctrl *gomock.Controller) *guardFixture {
	return &guardFixture{
		codec:    NewCodec("secret"),
		store:    redismocks.NewMockRedisClient(ctrl),
		userRepo: repositorymocks.NewMockUserRepository(ctrl),
	}
}

func (f *guardFixture) errWriter(w http.ResponseWriter, err error) {
	f.lastErr = err
	w.WriteHeader(http.StatusUnauthorized)
}

func (f *guardFixture) serve(g *Guard, authHeader string, next http.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	if next == nil {
		next = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	}
	g.Middleware(next).ServeHTTP(rec, req)
	return rec
}

func TestGuard_AccessToken_Valid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newGuardFixture(ctrl)

	user := testUser()
	token := signToken(t, f.codec, user, "jti-access", false, time.Minute)

	f.userRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	f.store.EXPECT().Exists(gomock.Any(), user.UID.String()+":access:jti-access").Return(true, nil)

	guard := NewAccessGuard(f.codec, f.store, f.userRepo, f.errWriter)
	rec := f.serve(guard, "Bearer "+token, func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, user.Email, claims.User.Email)
		assert.Equal(t, user.Role, claims.User.Role)

		ctxUser, ok := UserFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, user.UID, ctxUser.UID)
		w.WriteHeader(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, f.lastErr)
}

func TestGuard_MissingOrMalformedHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newGuardFixture(ctrl)
	guard := NewAccessGuard(f.codec, f.store, f.userRepo, f.errWriter)

	for _, header := range []string{"", "Token abc", "Bearer"} {
		f.lastErr = nil
		rec := f.serve(guard, header, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.ErrorIs(t, f.lastErr, pkgerrors.ErrInvalidToken)
	}
}

func TestGuard_ForeignSignature(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newGuardFixture(ctrl)

	user := testUser()
	foreign := signToken(t, NewCodec("other-secret"), user, "jti-1", false, time.Minute)

	guard := NewAccessGuard(f.codec, f.store, f.userRepo, f.errWriter)
	f.serve(guard, "Bearer "+foreign, nil)
	assert.ErrorIs(t, f.lastErr, pkgerrors.ErrInvalidToken)
}

func TestGuard_KindMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newGuardFixture(ctrl)

	user := testUser()
	accessToken := signToken(t, f.codec, user, "jti-a", false, time.Minute)
	refreshToken := signToken(t, f.codec, user, "jti-r", true, time.Minute)

	accessGuard := NewAccessGuard(f.codec, f.store, f.userRepo, f.errWriter)
	refreshGuard := NewRefreshGuard(f.codec, f.store, f.userRepo, f.errWriter)

	f.serve(accessGuard, "Bearer "+refreshToken, nil)
	assert.ErrorIs(t, f.lastErr, pkgerrors.ErrAccessTokenRequired)

	f.lastErr = nil
	f.serve(refreshGuard, "Bearer "+accessToken, nil)
	assert.ErrorIs(t, f.lastErr, pkgerrors.ErrRefreshTokenRequired)
}

func TestGuard_UserGone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newGuardFixture(ctrl)

	user := testUser()
	token := signToken(t, f.codec, user, "jti-1", false, time.Minute)
	f.userRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(nil, pkgerrors.ErrUserNotFound)

	guard := NewAccessGuard(f.codec, f.store, f.userRepo, f.errWriter)
	f.serve(guard, "Bearer "+token, nil)
	assert.ErrorIs(t, f.lastErr, pkgerrors.ErrUserNotFound)
}

func TestGuard_RevokedToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newGuardFixture(ctrl)

	user := testUser()
	// signature and expiry are still valid, only the store record is gone
	token := signToken(t, f.codec, user, "jti-revoked", false, time.Minute)

	f.userRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	f.store.EXPECT().Exists(gomock.Any(), user.UID.String()+":access:jti-revoked").Return(false, nil)

	guard := NewAccessGuard(f.codec, f.store, f.userRepo, f.errWriter)
	rec := f.serve(guard, "Bearer "+token, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.ErrorIs(t, f.lastErr, pkgerrors.ErrInvalidToken)
}

func TestGuard_StoreFailure_FailsClosed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newGuardFixture(ctrl)

	user := testUser()
	token := signToken(t, f.codec, user, "jti-1", false, time.Minute)

	f.userRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	f.store.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, stderrors.New("timeout"))

	guard := NewAccessGuard(f.codec, f.store, f.userRepo, f.errWriter)
	f.serve(guard, "Bearer "+token, nil)
	assert.ErrorIs(t, f.lastErr, pkgerrors.ErrInvalidToken)
}
