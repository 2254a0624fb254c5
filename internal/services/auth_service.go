package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	stderrors "errors"

	"github.com/avekens/threadlens/internal/infrastructure/auth"
	"github.com/avekens/threadlens/internal/infrastructure/kafka"
	"github.com/avekens/threadlens/internal/infrastructure/mail"
	"github.com/avekens/threadlens/internal/infrastructure/oauth"
	"github.com/avekens/threadlens/internal/infrastructure/observability"
	"github.com/avekens/threadlens/internal/infrastructure/redis"
	"github.com/avekens/threadlens/internal/models"
	"github.com/avekens/threadlens/internal/repository"
	pkgerrors "github.com/avekens/threadlens/pkg/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

const (
	tracerName       = "threadlens-auth"
	oauthStatePrefix = "oauth_state:"
	oauthStateTTL    = 5 * time.Minute
)

type AuthService interface {
	Signup(ctx context.Context, name, email, password, redirectURI string) error
	Login(ctx context.Context, email, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, user *models.User, claims *models.TokenClaims) (*auth.TokenPair, error)
	Logout(ctx context.Context, user *models.User, claims *models.TokenClaims) error
	ResendVerification(ctx context.Context, email, redirectURI string) (time.Duration, error)
	VerifyAccount(ctx context.Context, linkToken string) error
	RequestPasswordReset(ctx context.Context, email, redirectURI string) (time.Duration, error)
	ConfirmPasswordReset(ctx context.Context, linkToken, newPassword, confirmPassword string) error
	GoogleLoginURL(ctx context.Context, redirectURI string) (string, error)
	GoogleCallback(ctx context.Context, state, code string) (string, error)
	TakeOAuthTokens(ctx context.Context, state string) (*auth.TokenPair, error)
}

type authService struct {
	userRepo repository.UserRepository
	store    redis.RedisClient
	issuer   *auth.Issuer
	revoker  *auth.Revoker
	cooldown *auth.Cooldown
	links    *auth.LinkTokenizer
	stash    *auth.StateStash
	producer kafka.KafkaProducer
	google   oauth.GoogleProvider
}

func NewAuthService(
	userRepo repository.UserRepository,
	store redis.RedisClient,
	issuer *auth.Issuer,
	revoker *auth.Revoker,
	cooldown *auth.Cooldown,
	links *auth.LinkTokenizer,
	stash *auth.StateStash,
	producer kafka.KafkaProducer,
	google oauth.GoogleProvider,
) *authService {
	return &authService{
		userRepo: userRepo,
		store:    store,
		issuer:   issuer,
		revoker:  revoker,
		cooldown: cooldown,
		links:    links,
		stash:    stash,
		producer: producer,
		google:   google,
	}
}

func (s *authService) Signup(ctx context.Context, name, email, password, redirectURI string) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Signup")
	defer span.End()

	exists, err := s.userRepo.Exists(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user check failed")
		slog.Error("failed to check user existence", "email", email, "error", err)
		return fmt.Errorf("%w: failed to check user existence", pkgerrors.ErrInternal)
	}
	if exists {
		span.SetStatus(codes.Error, "email already registered")
		return pkgerrors.ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password hashing failed")
		slog.Error("failed to hash password", "email", email, "error", err)
		return fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Role:         models.RoleUser,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, pkgerrors.ErrUserAlreadyExists) {
			return err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "user creation failed")
		slog.Error("failed to create user", "email", email, "error", err)
		return fmt.Errorf("%w: failed to create user", pkgerrors.ErrInternal)
	}

	if err := s.sendLinkEmail(ctx, email, redirectURI, auth.LinkPurposeVerification); err != nil {
		return err
	}

	slog.Info("user signed up", "user_id", user.UID, "email", email)
	return nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		slog.Warn("login failed", "email", email, "error", err)
		span.SetStatus(codes.Error, "user lookup failed")
		return nil, pkgerrors.ErrInvalidCredentials
	}

	// OAuth-only accounts have no password to check.
	if user.PasswordHash == "" {
		span.SetStatus(codes.Error, "oauth-only account")
		return nil, pkgerrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("invalid password", "email", email)
		span.SetStatus(codes.Error, "invalid password")
		return nil, pkgerrors.ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token issuance failed")
		return nil, err
	}

	slog.Info("user logged in", "user_id", user.UID, "email", email)
	return pair, nil
}

// Refresh rotates a session: the old pair is revoked through the stored
// refresh→access mapping before a fresh pair is minted, so a replayed
// refresh token finds its store record gone.
func (s *authService) Refresh(ctx context.Context, user *models.User, claims *models.TokenClaims) (*auth.TokenPair, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Refresh")
	defer span.End()

	uid := user.UID.String()
	accessJTI, err := s.revoker.AccessJTIForRefresh(ctx, uid, claims.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mapping lookup failed")
		return nil, err
	}
	if err := s.revoker.RevokePair(ctx, uid, accessJTI, claims.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "revocation failed")
		return nil, err
	}
	observability.Revocations.WithLabelValues("pair").Inc()

	pair, err := s.issuer.IssuePair(ctx, user.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token issuance failed")
		return nil, err
	}

	slog.Info("token pair rotated", "user_id", uid, "old_refresh_jti", claims.ID)
	return pair, nil
}

func (s *authService) Logout(ctx context.Context, user *models.User, claims *models.TokenClaims) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Logout")
	defer span.End()

	uid := user.UID.String()
	accessJTI, err := s.revoker.AccessJTIForRefresh(ctx, uid, claims.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mapping lookup failed")
		return err
	}
	if err := s.revoker.RevokePair(ctx, uid, accessJTI, claims.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "revocation failed")
		return err
	}
	observability.Revocations.WithLabelValues("pair").Inc()

	slog.Info("user logged out", "user_id", uid)
	return nil
}

func (s *authService) ResendVerification(ctx context.Context, email, redirectURI string) (time.Duration, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "ResendVerification")
	defer span.End()

	remaining, err := s.cooldown.Check(ctx, auth.LinkPurposeVerification, email)
	if err != nil {
		return remaining, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if user.IsVerified {
		return 0, pkgerrors.ErrAlreadyVerified
	}

	if err := s.sendLinkEmail(ctx, email, redirectURI, auth.LinkPurposeVerification); err != nil {
		return 0, err
	}
	return 0, nil
}

func (s *authService) VerifyAccount(ctx context.Context, linkToken string) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "VerifyAccount")
	defer span.End()

	email, err := s.links.Decode(linkToken, auth.LinkPurposeVerification)
	if err != nil {
		span.SetStatus(codes.Error, "invalid link token")
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateVerified(ctx, user.UID, true); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: failed to mark account verified", pkgerrors.ErrInternal)
	}

	slog.Info("account verified", "user_id", user.UID, "email", email)
	return nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email, redirectURI string) (time.Duration, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "RequestPasswordReset")
	defer span.End()

	exists, err := s.userRepo.Exists(ctx, email)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("%w: failed to check user existence", pkgerrors.ErrInternal)
	}
	if !exists {
		return 0, pkgerrors.ErrUserNotFound
	}

	remaining, err := s.cooldown.Check(ctx, auth.LinkPurposePasswordReset, email)
	if err != nil {
		return remaining, err
	}

	if err := s.sendLinkEmail(ctx, email, redirectURI, auth.LinkPurposePasswordReset); err != nil {
		return 0, err
	}
	return 0, nil
}

// ConfirmPasswordReset updates the hash and then revokes every live token
// for the user: a password reset logs the account out everywhere.
func (s *authService) ConfirmPasswordReset(ctx context.Context, linkToken, newPassword, confirmPassword string) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "ConfirmPasswordReset")
	defer span.End()

	if newPassword != confirmPassword {
		return pkgerrors.ErrPasswordMismatch
	}

	email, err := s.links.Decode(linkToken, auth.LinkPurposePasswordReset)
	if err != nil {
		span.SetStatus(codes.Error, "invalid link token")
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.UID, string(hash)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: failed to update password", pkgerrors.ErrInternal)
	}

	if err := s.revoker.RevokeAll(ctx, user.UID.String()); err != nil {
		span.RecordError(err)
		return err
	}
	observability.Revocations.WithLabelValues("all").Inc()

	slog.Info("password reset completed", "user_id", user.UID)
	return nil
}

func (s *authService) GoogleLoginURL(ctx context.Context, redirectURI string) (string, error) {
	state := uuid.NewString()
	if err := s.store.Set(ctx, oauthStatePrefix+state, redirectURI, oauthStateTTL); err != nil {
		return "", fmt.Errorf("%w: failed to persist oauth state", pkgerrors.ErrInternal)
	}
	return s.google.AuthCodeURL(state), nil
}

// GoogleCallback finishes the authorization-code flow and returns the
// frontend redirect carrying a one-time state that can be traded for the
// token pair.
func (s *authService) GoogleCallback(ctx context.Context, state, code string) (string, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "GoogleCallback")
	defer span.End()

	frontendRedirect, err := s.store.Get(ctx, oauthStatePrefix+state)
	if err != nil {
		span.SetStatus(codes.Error, "unknown oauth state")
		return "", pkgerrors.ErrInvalidState
	}
	_ = s.store.Del(ctx, oauthStatePrefix+state)

	info, err := s.google.Exchange(ctx, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "code exchange failed")
		slog.Error("google code exchange failed", "error", err)
		return "", pkgerrors.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, info.Email)
	switch {
	case stderrors.Is(err, pkgerrors.ErrUserNotFound):
		user = &models.User{
			Name:       info.Name,
			Email:      info.Email,
			Role:       models.RoleUser,
			IsVerified: true,
			GoogleID:   info.Sub,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("%w: failed to create user", pkgerrors.ErrInternal)
		}
	case err != nil:
		span.RecordError(err)
		return "", fmt.Errorf("%w: failed to look up user", pkgerrors.ErrInternal)
	default:
		// Existing password account must be verified before it can be
		// linked to a Google identity.
		if user.PasswordHash != "" && !user.IsVerified {
			return "", pkgerrors.ErrAccountNotVerified
		}
		if user.GoogleID == "" {
			if err := s.userRepo.UpdateGoogleID(ctx, user.UID, info.Sub); err != nil {
				span.RecordError(err)
				return "", fmt.Errorf("%w: failed to link google account", pkgerrors.ErrInternal)
			}
		}
	}

	pair, err := s.issuer.IssuePair(ctx, user.Email)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	tokenState := uuid.NewString()
	if err := s.stash.Save(ctx, tokenState, pair); err != nil {
		span.RecordError(err)
		return "", err
	}

	slog.Info("google login completed", "user_id", user.UID, "email", user.Email)
	return fmt.Sprintf("%s?state=%s", frontendRedirect, tokenState), nil
}

func (s *authService) TakeOAuthTokens(ctx context.Context, state string) (*auth.TokenPair, error) {
	return s.stash.Take(ctx, state)
}

// sendLinkEmail mints a link token, enqueues the email event and arms the
// cooldown marker. Delivery itself is fire-and-forget: a broker hiccup is
// retried in the background and never fails the request.
func (s *authService) sendLinkEmail(ctx context.Context, email, redirectURI, purpose string) error {
	token, err := s.links.Create(email, purpose)
	if err != nil {
		slog.Error("failed to create link token", "email", email, "purpose", purpose, "error", err)
		return fmt.Errorf("%w: failed to create link token", pkgerrors.ErrInternal)
	}

	subject := "Email Verification"
	template := mail.TemplateEmailVerification
	if purpose == auth.LinkPurposePasswordReset {
		subject = "Reset your password"
		template = mail.TemplatePasswordReset
	}

	event := mail.Message{
		Recipients: []string{email},
		Subject:    subject,
		Template:   template,
		Link:       redirectURI + token,
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal email event", "email", email, "error", err)
		return fmt.Errorf("%w: failed to marshal email event", pkgerrors.ErrInternal)
	}

	go func() {
		retries := 3
		for i := 0; i < retries; i++ {
			if err := s.producer.Send(context.Background(), kafka.EmailTopic, email, eventBytes); err == nil {
				slog.Info("email event sent", "email", email, "template", template)
				return
			}
			time.Sleep(time.Second * time.Duration(i+1))
		}
		slog.Error("failed to send email event after retries", "email", email, "template", template)
	}()

	if err := s.cooldown.Mark(ctx, purpose, email); err != nil {
		slog.Error("failed to set email cooldown", "email", email, "purpose", purpose, "error", err)
	}
	return nil
}
