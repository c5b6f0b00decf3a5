package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/notevault/backend/internal/config"
	"github.com/notevault/backend/internal/db"
	"github.com/notevault/backend/internal/mailer"
	"github.com/notevault/backend/internal/model"
	"github.com/notevault/backend/internal/template"
	"github.com/notevault/backend/internal/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMisconfigured      = errors.New("auth config invalid")
	ErrPasswordMismatch   = errors.New("password mismatch")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrRevokedToken       = errors.New("token revoked")
	ErrOTPExpired         = errors.New("otp expired")
	ErrInvalidOTP         = errors.New("invalid otp")
)

// UserStore is the external user collaborator. Write paths that set a
// password hash it themselves; this service never stores plaintext but also
// never hashes passwords redundantly.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, password string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	SetProfilePicture(ctx context.Context, userID int64, path string) error
	SetOTP(ctx context.Context, userID int64, codeHash string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, userID int64, newPassword string) error
}

// RevocationStore records revoked token ids until their natural expiry.
type RevocationStore interface {
	RevokeTokens(ctx context.Context, tokens []model.RevokedToken) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Mailer enqueues outbound mail; delivery is fire-and-forget.
type Mailer interface {
	Enqueue(msg mailer.Message)
}

type AuthService struct {
	users   UserStore
	revoked RevocationStore
	codec   *token.Codec
	mail    Mailer

	accessTTL  time.Duration
	refreshTTL time.Duration
	otpTTL     time.Duration
	otpDigits  int
	otpBound   int64
	bcryptCost int

	now func() time.Time
}

func NewAuthService(users UserStore, revoked RevocationStore, codec *token.Codec, mail Mailer, cfg config.AuthConfig) (*AuthService, error) {
	accessTTL, err := time.ParseDuration(cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ACCESS_TOKEN_TTL", ErrMisconfigured)
	}

	refreshTTL, err := time.ParseDuration(cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid REFRESH_TOKEN_TTL", ErrMisconfigured)
	}

	otpTTL, err := time.ParseDuration(cfg.OTPTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid OTP_TTL", ErrMisconfigured)
	}

	otpDigits, err := strconv.Atoi(cfg.OTPDigits)
	if err != nil || otpDigits < 4 || otpDigits > 10 {
		return nil, fmt.Errorf("%w: invalid OTP_DIGITS", ErrMisconfigured)
	}
	otpBound := int64(1)
	for i := 0; i < otpDigits; i++ {
		otpBound *= 10
	}

	bcryptCost := bcrypt.DefaultCost
	if cfg.BcryptCost != "" {
		bcryptCost, err = strconv.Atoi(cfg.BcryptCost)
		if err != nil || bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("%w: invalid BCRYPT_COST", ErrMisconfigured)
		}
	}

	return &AuthService{
		users:      users,
		revoked:    revoked,
		codec:      codec,
		mail:       mail,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		otpTTL:     otpTTL,
		otpDigits:  otpDigits,
		otpBound:   otpBound,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, username, email, password, confirmPassword string) error {
	if password != confirmPassword {
		return ErrPasswordMismatch
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return ErrDuplicateEmail
	}
	if !db.IsNoRows(err) {
		return err
	}

	// The unique index on email is what resolves two concurrent
	// registrations racing past the lookup above: one insert wins.
	if _, err := s.users.CreateUser(ctx, username, email, password); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// Login verifies the credential pair and issues one access and one refresh
// token, each with its own jti and TTL. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	subject := strconv.FormatInt(user.ID, 10)

	accessToken, _, err := s.codec.Issue(subject, token.KindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, _, err := s.codec.Issue(subject, token.KindRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh issues a new access token for the subject of an already validated
// refresh token. The refresh token itself is not rotated; it stays valid
// until expiry or sign-out.
func (s *AuthService) Refresh(ctx context.Context, subject string) (string, error) {
	accessToken, _, err := s.codec.Issue(subject, token.KindAccess, s.accessTTL)
	if err != nil {
		return "", err
	}
	return accessToken, nil
}

// SignOut requires the caller to prove the credential pair again, then
// revokes the access and refresh token in one batch. If the batch fails the
// sign-out fails; the client retries with both tokens still live.
func (s *AuthService) SignOut(ctx context.Context, email, password string, access, refresh model.TokenDetails) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrInvalidCredentials
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return s.revoked.RevokeTokens(ctx, []model.RevokedToken{
		{TokenID: access.TokenID, ExpiresAt: access.ExpiresAt},
		{TokenID: refresh.TokenID, ExpiresAt: refresh.ExpiresAt},
	})
}

// AuthenticateAccess validates an access token string end to end: signature
// and expiry, revocation, then user lookup. Called by the authentication
// middleware on every protected request.
func (s *AuthService) AuthenticateAccess(ctx context.Context, tokenString string) (*model.AuthUser, error) {
	claims, err := s.codec.Verify(tokenString, token.KindAccess)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevokedToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, token.ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &model.AuthUser{
		User: user,
		Token: model.TokenDetails{
			TokenID:   claims.TokenID,
			ExpiresAt: claims.ExpiresAt,
		},
	}, nil
}

// ValidateRefresh checks a refresh token against the refresh key pair and the
// revocation list. It does not load the user; refresh and access lifecycles
// are independent once issued.
func (s *AuthService) ValidateRefresh(ctx context.Context, tokenString string) (*model.RefreshContext, error) {
	claims, err := s.codec.Verify(tokenString, token.KindRefresh)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevokedToken
	}

	return &model.RefreshContext{
		Subject:   claims.Subject,
		TokenID:   claims.TokenID,
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func (s *AuthService) SaveProfilePicture(ctx context.Context, userID int64, path string) error {
	return s.users.SetProfilePicture(ctx, userID, path)
}

// RequestPasswordReset issues a numeric OTP, stores its hash with a TTL and
// queues the plaintext code for email delivery. A pending OTP is overwritten;
// only the latest code can reset. The response never waits on delivery.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrUserNotFound
		}
		return err
	}

	code, err := s.generateOTP()
	if err != nil {
		return err
	}

	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost)
	if err != nil {
		return err
	}

	if err := s.users.SetOTP(ctx, user.ID, string(codeHash), s.now().Add(s.otpTTL)); err != nil {
		return err
	}

	s.mail.Enqueue(mailer.Message{
		To:       email,
		Subject:  "Reset your password",
		HTMLBody: template.RenderForgotPassword(code, s.otpTTL),
	})
	return nil
}

// ResetPassword consumes the OTP: on success the new password is set and the
// OTP slot cleared in one store update, so the same code can never be used
// twice.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword, confirmNewPassword string) error {
	if newPassword != confirmNewPassword {
		return ErrPasswordMismatch
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrUserNotFound
		}
		return err
	}

	if user.OTPCodeHash == "" || user.OTPExpiresAt == nil {
		return ErrInvalidOTP
	}
	if s.now().After(*user.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.OTPCodeHash), []byte(otp)); err != nil {
		return ErrInvalidOTP
	}

	return s.users.ResetPassword(ctx, user.ID, newPassword)
}

func (s *AuthService) generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(s.otpBound))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", s.otpDigits, n.Int64()), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
