package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/notevault/backend/internal/config"
	"github.com/notevault/backend/internal/mailer"
	"github.com/notevault/backend/internal/model"
	"github.com/notevault/backend/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

var (
	testKeysOnce sync.Once
	testKeys     *token.KeyStore
)

func testCodec(t *testing.T) *token.Codec {
	t.Helper()
	testKeysOnce.Do(func() {
		accessKey, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		refreshKey, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKeys = token.NewKeyStore(accessKey, refreshKey)
	})
	return token.NewCodec(testKeys)
}

type fakeUserStore struct {
	mu      sync.Mutex
	seq     int64
	byEmail map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*model.User)}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, username, email, password string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[email]; exists {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	f.seq++
	user := &model.User{
		ID:           f.seq,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
	}
	f.byEmail[email] = user
	clone := *user
	return &clone, nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, exists := f.byEmail[email]
	if !exists {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byEmail {
		if user.ID == userID {
			clone := *user
			clone.PasswordHash = ""
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) SetProfilePicture(ctx context.Context, userID int64, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byEmail {
		if user.ID == userID {
			user.ProfilePicture = path
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeUserStore) SetOTP(ctx context.Context, userID int64, codeHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byEmail {
		if user.ID == userID {
			user.OTPCodeHash = codeHash
			expiry := expiresAt
			user.OTPExpiresAt = &expiry
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeUserStore) ResetPassword(ctx context.Context, userID int64, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byEmail {
		if user.ID == userID {
			hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.MinCost)
			if err != nil {
				return err
			}
			user.PasswordHash = string(hash)
			user.OTPCodeHash = ""
			user.OTPExpiresAt = nil
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeRevocationStore struct {
	mu        sync.Mutex
	revoked   map[string]time.Time
	revokeErr error
}

func newFakeRevocationStore() *fakeRevocationStore {
	return &fakeRevocationStore{revoked: make(map[string]time.Time)}
}

func (f *fakeRevocationStore) RevokeTokens(ctx context.Context, tokens []model.RevokedToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.revokeErr != nil {
		return f.revokeErr
	}
	for _, t := range tokens {
		f.revoked[t.TokenID] = t.ExpiresAt
	}
	return nil
}

func (f *fakeRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, revoked := f.revoked[tokenID]
	return revoked, nil
}

type fakeMailer struct {
	mu       sync.Mutex
	messages []mailer.Message
}

func (f *fakeMailer) Enqueue(msg mailer.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeMailer) last(t *testing.T) mailer.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		t.Fatal("no mail enqueued")
	}
	return f.messages[len(f.messages)-1]
}

var otpPattern = regexp.MustCompile(`class="otp">(\d+)<`)

func (f *fakeMailer) lastOTP(t *testing.T) string {
	t.Helper()
	match := otpPattern.FindStringSubmatch(f.last(t).HTMLBody)
	if match == nil {
		t.Fatal("no otp found in mail body")
	}
	return match[1]
}

type authFixture struct {
	svc     *AuthService
	users   *fakeUserStore
	revoked *fakeRevocationStore
	mail    *fakeMailer
	codec   *token.Codec
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := newFakeUserStore()
	revoked := newFakeRevocationStore()
	mail := &fakeMailer{}
	codec := testCodec(t)

	svc, err := NewAuthService(users, revoked, codec, mail, config.AuthConfig{
		AccessTTL:  "15m",
		RefreshTTL: "168h",
		BcryptCost: "4",
		OTPTTL:     "10m",
		OTPDigits:  "4",
	})
	require.NoError(t, err)

	return &authFixture{svc: svc, users: users, revoked: revoked, mail: mail, codec: codec}
}

func (fx *authFixture) register(t *testing.T, email, password string) {
	t.Helper()
	require.NoError(t, fx.svc.Register(context.Background(), "alice", email, password, password))
}

// --- tests ---

func TestNewAuthServiceRejectsBadConfig(t *testing.T) {
	_, err := NewAuthService(newFakeUserStore(), newFakeRevocationStore(), testCodec(t), &fakeMailer{}, config.AuthConfig{
		AccessTTL:  "not-a-duration",
		RefreshTTL: "168h",
		OTPTTL:     "10m",
		OTPDigits:  "4",
	})
	assert.ErrorIs(t, err, ErrMisconfigured)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	fx := newAuthFixture(t)
	err := fx.svc.Register(context.Background(), "alice", "alice@example.com", "Passw0rd!", "other")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")

	err := fx.svc.Register(context.Background(), "alice2", "alice@example.com", "Passw0rd!", "Passw0rd!")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestLoginIssuesDistinctTokenPairs(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")

	pair1, err := fx.svc.Login(context.Background(), "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	pair2, err := fx.svc.Login(context.Background(), "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	access1, err := fx.codec.Verify(pair1.AccessToken, token.KindAccess)
	require.NoError(t, err)
	refresh1, err := fx.codec.Verify(pair1.RefreshToken, token.KindRefresh)
	require.NoError(t, err)
	access2, err := fx.codec.Verify(pair2.AccessToken, token.KindAccess)
	require.NoError(t, err)
	refresh2, err := fx.codec.Verify(pair2.RefreshToken, token.KindRefresh)
	require.NoError(t, err)

	user, err := fx.users.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	want := strconv.FormatInt(user.ID, 10)

	ids := map[string]bool{}
	for _, claims := range []*token.Claims{access1, refresh1, access2, refresh2} {
		assert.Equal(t, want, claims.Subject)
		assert.False(t, ids[claims.TokenID], "token id %q reused", claims.TokenID)
		ids[claims.TokenID] = true
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")

	_, wrongPassword := fx.svc.Login(context.Background(), "alice@example.com", "nope")
	_, unknownEmail := fx.svc.Login(context.Background(), "nobody@example.com", "Passw0rd!")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
}

func TestRefreshKeepsSubject(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")

	pair, err := fx.svc.Login(context.Background(), "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	refreshCtx, err := fx.svc.ValidateRefresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	accessToken, err := fx.svc.Refresh(context.Background(), refreshCtx.Subject)
	require.NoError(t, err)

	original, err := fx.codec.Verify(pair.AccessToken, token.KindAccess)
	require.NoError(t, err)
	fresh, err := fx.codec.Verify(accessToken, token.KindAccess)
	require.NoError(t, err)

	assert.Equal(t, original.Subject, fresh.Subject)
	assert.NotEqual(t, original.TokenID, fresh.TokenID)
}

func TestSignOutRevokesBothTokens(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")
	ctx := context.Background()

	pair, err := fx.svc.Login(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	authUser, err := fx.svc.AuthenticateAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	refreshCtx, err := fx.svc.ValidateRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	err = fx.svc.SignOut(ctx, "alice@example.com", "Passw0rd!", authUser.Token, model.TokenDetails{
		TokenID:   refreshCtx.TokenID,
		ExpiresAt: refreshCtx.ExpiresAt,
	})
	require.NoError(t, err)

	// Signatures are still valid; revocation alone must reject the pair.
	_, err = fx.svc.AuthenticateAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrRevokedToken)
	_, err = fx.svc.ValidateRefresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRevokedToken)
}

func TestSignOutRequiresCredentialProof(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")
	ctx := context.Background()

	pair, err := fx.svc.Login(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	err = fx.svc.SignOut(ctx, "alice@example.com", "stolen-token-no-password", model.TokenDetails{}, model.TokenDetails{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = fx.svc.AuthenticateAccess(ctx, pair.AccessToken)
	assert.NoError(t, err, "failed sign-out must not revoke anything")
}

func TestSignOutBatchFailureFailsSignOut(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")
	ctx := context.Background()

	pair, err := fx.svc.Login(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	fx.revoked.revokeErr = errors.New("connection reset")
	authUser, err := fx.svc.AuthenticateAccess(ctx, pair.AccessToken)
	require.NoError(t, err)

	err = fx.svc.SignOut(ctx, "alice@example.com", "Passw0rd!", authUser.Token, model.TokenDetails{TokenID: "r"})
	assert.Error(t, err)

	fx.revoked.revokeErr = nil
	_, err = fx.svc.AuthenticateAccess(ctx, pair.AccessToken)
	assert.NoError(t, err, "partial revocation must not look like success")
}

func TestRevokeTwiceStillRevoked(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	entry := []model.RevokedToken{{TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}}
	require.NoError(t, fx.revoked.RevokeTokens(ctx, entry))
	require.NoError(t, fx.revoked.RevokeTokens(ctx, entry))

	revoked, err := fx.revoked.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthenticateAccessRejectsRefreshToken(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")

	pair, err := fx.svc.Login(context.Background(), "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	_, err = fx.svc.AuthenticateAccess(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestAuthenticateAccessUserGone(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")
	ctx := context.Background()

	pair, err := fx.svc.Login(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	delete(fx.users.byEmail, "alice@example.com")

	_, err = fx.svc.AuthenticateAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPasswordResetFlow(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")
	ctx := context.Background()

	require.NoError(t, fx.svc.RequestPasswordReset(ctx, "alice@example.com"))
	code := fx.mail.lastOTP(t)

	err := fx.svc.ResetPassword(ctx, "alice@example.com", code, "NewPassw0rd!", "NewPassw0rd!")
	require.NoError(t, err)

	// The OTP slot is cleared by the reset; the same code never works twice.
	err = fx.svc.ResetPassword(ctx, "alice@example.com", code, "Another0ne!", "Another0ne!")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	_, err = fx.svc.Login(ctx, "alice@example.com", "NewPassw0rd!")
	assert.NoError(t, err)
	_, err = fx.svc.Login(ctx, "alice@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordResetExpiredOTP(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")
	ctx := context.Background()

	base := time.Now()
	fx.svc.now = func() time.Time { return base }
	require.NoError(t, fx.svc.RequestPasswordReset(ctx, "alice@example.com"))
	code := fx.mail.lastOTP(t)

	fx.svc.now = func() time.Time { return base.Add(11 * time.Minute) }
	err := fx.svc.ResetPassword(ctx, "alice@example.com", code, "NewPassw0rd!", "NewPassw0rd!")
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestSecondOTPRequestInvalidatesFirst(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")
	ctx := context.Background()

	require.NoError(t, fx.svc.RequestPasswordReset(ctx, "alice@example.com"))
	first := fx.mail.lastOTP(t)

	require.NoError(t, fx.svc.RequestPasswordReset(ctx, "alice@example.com"))
	second := fx.mail.lastOTP(t)

	if first != second {
		err := fx.svc.ResetPassword(ctx, "alice@example.com", first, "NewPassw0rd!", "NewPassw0rd!")
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}

	err := fx.svc.ResetPassword(ctx, "alice@example.com", second, "NewPassw0rd!", "NewPassw0rd!")
	assert.NoError(t, err)
}

func TestPasswordResetValidation(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice@example.com", "Passw0rd!")
	ctx := context.Background()

	err := fx.svc.ResetPassword(ctx, "alice@example.com", "0000", "a", "b")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	err = fx.svc.ResetPassword(ctx, "nobody@example.com", "0000", "NewPassw0rd!", "NewPassw0rd!")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// No OTP requested yet.
	err = fx.svc.ResetPassword(ctx, "alice@example.com", "0000", "NewPassw0rd!", "NewPassw0rd!")
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestRequestPasswordResetUnknownUser(t *testing.T) {
	fx := newAuthFixture(t)
	err := fx.svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, fx.mail.messages)
}

// Full lifecycle: register, login, refresh, sign out, reuse rejected.
func TestCredentialLifecycle(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.svc.Register(ctx, "alice", "alice@example.com", "Passw0rd!", "Passw0rd!"))

	pair, err := fx.svc.Login(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	refreshCtx, err := fx.svc.ValidateRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	newAccess, err := fx.svc.Refresh(ctx, refreshCtx.Subject)
	require.NoError(t, err)

	originalClaims, err := fx.codec.Verify(pair.AccessToken, token.KindAccess)
	require.NoError(t, err)
	newClaims, err := fx.codec.Verify(newAccess, token.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, originalClaims.Subject, newClaims.Subject)

	authUser, err := fx.svc.AuthenticateAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, fx.svc.SignOut(ctx, "alice@example.com", "Passw0rd!", authUser.Token, model.TokenDetails{
		TokenID:   refreshCtx.TokenID,
		ExpiresAt: refreshCtx.ExpiresAt,
	}))

	_, err = fx.svc.AuthenticateAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrRevokedToken)
	_, err = fx.svc.ValidateRefresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRevokedToken)
}
