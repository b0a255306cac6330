package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/comicshelf/comicshelf/internal/api/domain"
	"github.com/comicshelf/comicshelf/internal/api/mail"
	"github.com/comicshelf/comicshelf/internal/api/store"
	"github.com/comicshelf/comicshelf/pkg/cryptox"
	"github.com/comicshelf/comicshelf/pkg/idx"
	"github.com/comicshelf/comicshelf/pkg/jwtx"
	"github.com/comicshelf/comicshelf/pkg/slogx"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

var (
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrMissingFields       = errors.New("required fields are missing")
	ErrWeakPassword        = errors.New("password must be at least 6 characters long")
	ErrUserExists          = errors.New("user already exists")
	ErrUserUnverified      = errors.New("email has not been verified")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid password")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrAlreadyVerified     = errors.New("account is already verified")
	ErrVerificationInvalid = errors.New("invalid verification link")
	ErrVerificationMissing = errors.New("verification record not found")
	ErrVerificationExpired = errors.New("verification link has expired")
	ErrEmailDelivery       = errors.New("failed to send email")
)

// MinPasswordLength applies to new passwords on change-password. Login and
// registration accept whatever the account was created with.
const MinPasswordLength = 6

// TemporaryPasswordLength is the length of generated reset passwords.
const TemporaryPasswordLength = 10

// validateEmail rejects blank addresses as well as malformed ones. The
// is.Email rule on its own skips empty values.
func validateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// TokenPair is what a successful login hands out.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService implements registration, email verification and the password
// flows.
type AuthService struct {
	Store  store.Store
	Mailer mail.Mailer

	AccessSigner  jwtx.Signer
	RefreshSigner jwtx.Signer
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// BaseURL is the externally reachable server root used to build
	// verification links, e.g. "https://api.example.com".
	BaseURL string

	// VerificationTTL is how long a mailed verification link stays valid.
	VerificationTTL time.Duration
}

// Register creates an unverified account and mails a verification link.
// If the mail cannot be sent the account is rolled back so the email address
// isn't left claimed by an account nobody can verify.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if err := validateEmail(email); err != nil {
		return domain.User{}, err
	}
	if password == "" || name == "" {
		return domain.User{}, ErrMissingFields
	}

	if existing, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		if existing.Verified {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, ErrUserUnverified
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		AvatarURL:    domain.DefaultAvatarURL,
		Role:         domain.RoleUser,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, err
	}

	if err := s.sendVerification(ctx, user); err != nil {
		// Roll back so the address can be registered again.
		if delErr := s.Store.Users().DeleteUser(ctx, user.ID); delErr != nil {
			log.Error("failed to roll back user after mail failure",
				slog.String("user_id", user.ID),
				slog.Any("error", delErr),
			)
		}
		return domain.User{}, err
	}

	log.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// sendVerification stores a hashed one-time secret and mails the plaintext
// link. The secret embeds the user id after the final separator so the
// verify endpoint can find the record without a table scan; user ids are
// ULIDs and never contain the separator themselves.
func (s *AuthService) sendVerification(ctx context.Context, user domain.User) error {
	secret := uuid.NewString() + "-" + user.ID

	hash, err := cryptox.HashPassword(secret)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	verification := domain.Verification{
		UserID:     user.ID,
		SecretHash: hash,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.VerificationTTL),
	}
	if err := s.Store.Verifications().CreateVerification(ctx, verification); err != nil {
		return err
	}

	verifyURL := strings.TrimSuffix(s.BaseURL, "/") + "/api/verify/" + secret
	if err := s.Mailer.SendVerification(user.Email, user.Name, verifyURL); err != nil {
		slogx.FromContext(ctx).Error("verification mail failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return ErrEmailDelivery
	}
	return nil
}

// Verify redeems a verification link. The secret is single-use: success and
// expiry both remove the stored record.
func (s *AuthService) Verify(ctx context.Context, secret string) error {
	log := slogx.FromContext(ctx)

	splitIndex := strings.LastIndex(secret, "-")
	if splitIndex == -1 {
		return ErrVerificationInvalid
	}
	userID := secret[splitIndex+1:]

	verification, err := s.Store.Verifications().GetVerificationByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrVerificationMissing
		}
		return err
	}

	if verification.Expired(time.Now().UTC()) {
		if err := s.Store.Verifications().DeleteVerifications(ctx, userID); err != nil {
			log.Error("failed to delete expired verification", slog.Any("error", err))
		}
		return ErrVerificationExpired
	}

	if err := cryptox.VerifyPassword(secret, verification.SecretHash); err != nil {
		return ErrVerificationInvalid
	}

	if err := s.Store.Users().SetVerified(ctx, userID, true); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.Store.Verifications().DeleteVerifications(ctx, userID); err != nil {
		log.Error("failed to delete redeemed verification", slog.Any("error", err))
	}

	log.Info("email verified", slog.String("user_id", userID))
	return nil
}

// ResendVerification replaces any pending verification with a fresh one.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Verified {
		return ErrAlreadyVerified
	}

	if err := s.Store.Verifications().DeleteVerifications(ctx, user.ID); err != nil {
		return err
	}
	return s.sendVerification(ctx, user)
}

// Login checks credentials and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, domain.User, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, domain.User{}, ErrUserNotFound
		}
		return TokenPair{}, domain.User{}, err
	}

	if !user.Verified {
		return TokenPair{}, domain.User{}, ErrUserUnverified
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		log.Warn("login failed", slog.String("user_id", user.ID))
		return TokenPair{}, domain.User{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	access, err := s.AccessSigner.Sign(jwtx.NewAccessClaims(user.ID, user.Role, s.Issuer, s.AccessTTL, now))
	if err != nil {
		return TokenPair{}, domain.User{}, err
	}
	refresh, err := s.RefreshSigner.Sign(jwtx.NewRefreshClaims(user.ID, s.Issuer, s.RefreshTTL, now))
	if err != nil {
		return TokenPair{}, domain.User{}, err
	}

	log.Info("user logged in", slog.String("user_id", user.ID))
	return TokenPair{AccessToken: access, RefreshToken: refresh}, user, nil
}

// ForgotPassword replaces the account password with a generated one and
// mails it out. The password is rotated before the mail goes out; a delivery
// failure is reported but not rolled back, so the user can simply retry.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	if err := validateEmail(email); err != nil {
		return err
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	password, err := cryptox.GeneratePassword(TemporaryPasswordLength)
	if err != nil {
		return err
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}

	if err := s.Mailer.SendTemporaryPassword(user.Email, user.Name, password); err != nil {
		log.Error("temporary password mail failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return ErrEmailDelivery
	}

	log.Info("password reset", slog.String("user_id", user.ID))
	return nil
}

// ChangePassword rotates the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if email == "" || oldPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := cryptox.VerifyPassword(oldPassword, user.PasswordHash); err != nil {
		return ErrWrongPassword
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password changed", slog.String("user_id", user.ID))
	return nil
}
