package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/ecomanager/ecomanager/internal/app/auth/jwt"
	appsvc "github.com/ecomanager/ecomanager/internal/app/auth/service"
	customErrors "github.com/ecomanager/ecomanager/internal/domain/auth/errors"
	"github.com/ecomanager/ecomanager/internal/domain/auth/model"
	"github.com/ecomanager/ecomanager/internal/infra/config"
	"github.com/ecomanager/ecomanager/internal/transport/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type userRepoStub struct{ users map[uuid.UUID]model.User }

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[uuid.UUID]model.User)}
}

func (u *userRepoStub) CreateUser(_ context.Context, m model.User) (uuid.UUID, error) {
	for _, v := range u.users {
		if v.Email == m.Email {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
	}
	u.users[m.ID] = m
	return m.ID, nil
}

func (u *userRepoStub) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	for _, v := range u.users {
		if v.Email == email {
			return v, nil
		}
	}
	return model.User{}, customErrors.ErrNotFound
}

func (u *userRepoStub) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	v, ok := u.users[id]
	if !ok {
		return model.User{}, customErrors.ErrNotFound
	}
	return v, nil
}

func (u *userRepoStub) UpdateUser(_ context.Context, m model.User) error {
	u.users[m.ID] = m
	return nil
}

func (u *userRepoStub) ListUsers(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(u.users))
	for _, v := range u.users {
		out = append(out, v)
	}
	return out, nil
}

func (u *userRepoStub) SetRole(_ context.Context, id uuid.UUID, role string) error {
	v, ok := u.users[id]
	if !ok {
		return customErrors.ErrNotFound
	}
	v.Role = role
	u.users[id] = v
	return nil
}

func (u *userRepoStub) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	v, ok := u.users[id]
	if !ok {
		return customErrors.ErrNotFound
	}
	v.Active = active
	u.users[id] = v
	return nil
}

type ledgerStub struct{ slots map[uuid.UUID]string }

func newLedgerStub() *ledgerStub { return &ledgerStub{slots: make(map[uuid.UUID]string)} }

func (l *ledgerStub) Put(_ context.Context, userID uuid.UUID, jtiHash string, _ time.Duration) error {
	l.slots[userID] = jtiHash
	return nil
}

func (l *ledgerStub) Current(_ context.Context, userID uuid.UUID) (string, error) {
	h, ok := l.slots[userID]
	if !ok {
		return "", customErrors.ErrRefreshRevoked
	}
	return h, nil
}

func (l *ledgerStub) Clear(_ context.Context, userID uuid.UUID) error {
	delete(l.slots, userID)
	return nil
}

/* ───────────────────────────── helpers ───────────────────────────── */

func newSvc(t *testing.T) (appsvc.Service, *userRepoStub, *ledgerStub, *jwt.Codec) {
	t.Helper()
	ur := newUserRepoStub()
	ledger := newLedgerStub()

	codec, err := jwt.NewCodec(&config.Config{
		SigningKey: "0123456789abcdef0123456789abcdef",
		Issuer:     "test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)

	svc := appsvc.New(ur, ledger, codec, appsvc.NewValidator())
	return svc, ur, ledger, codec
}

func register(t *testing.T, svc appsvc.Service) model.Summary {
	t.Helper()
	sum, err := svc.Register(context.Background(), dto.RegisterDTO{
		Email:    "alice@example.com",
		Password: "Secret123!",
		Username: "alice",
	})
	require.NoError(t, err)
	return sum
}

/* ─────────────────────────────── tests ───────────────────────────── */

func TestRegister_NoAutoLogin(t *testing.T) {
	svc, _, ledger, _ := newSvc(t)

	sum := register(t, svc)
	require.Equal(t, "alice@example.com", sum.Email)
	require.Equal(t, model.RoleUser, sum.Role)
	require.True(t, sum.Active)
	require.Empty(t, ledger.slots, "register must not create a session")
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, _, _ := newSvc(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), dto.RegisterDTO{
		Email:    "Alice@Example.com", // case-insensitive duplicate
		Password: "Secret123!",
		Username: "alice2",
	})
	require.ErrorIs(t, err, customErrors.ErrAlreadyExists)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc, _, _, _ := newSvc(t)

	for _, pwd := range []string{"short1A", "nouppercase1", "NoDigitsHere"} {
		_, err := svc.Register(context.Background(), dto.RegisterDTO{
			Email:    "bob@example.com",
			Password: pwd,
			Username: "bob",
		})
		require.ErrorIs(t, err, customErrors.ErrWeakPassword, "password %q", pwd)
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _, _, codec := newSvc(t)
	register(t, svc)

	pair, sum, err := svc.Login(context.Background(), dto.LoginDTO{
		Email: "alice@example.com", Password: "Secret123!",
	})
	require.NoError(t, err)
	require.Equal(t, "alice", sum.Username)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := codec.Verify(pair.AccessToken, jwt.KindAccess)
	require.NoError(t, err)
	require.Equal(t, sum.ID.String(), claims.Subject)
	require.Equal(t, model.RoleUser, claims.Role)
}

func TestLogin_FailureIndistinguishable(t *testing.T) {
	svc, _, _, _ := newSvc(t)
	register(t, svc)

	_, _, errWrongPwd := svc.Login(context.Background(), dto.LoginDTO{
		Email: "alice@example.com", Password: "WrongSecret1",
	})
	_, _, errUnknown := svc.Login(context.Background(), dto.LoginDTO{
		Email: "nobody@example.com", Password: "Secret123!",
	})

	require.ErrorIs(t, errWrongPwd, customErrors.ErrInvalidCredentials)
	require.ErrorIs(t, errUnknown, customErrors.ErrInvalidCredentials)
	require.Equal(t, errWrongPwd.Error(), errUnknown.Error())
}

func TestLogin_InactiveAccount(t *testing.T) {
	svc, ur, _, _ := newSvc(t)
	sum := register(t, svc)
	require.NoError(t, ur.SetActive(context.Background(), sum.ID, false))

	_, _, err := svc.Login(context.Background(), dto.LoginDTO{
		Email: "alice@example.com", Password: "Secret123!",
	})
	require.ErrorIs(t, err, customErrors.ErrInvalidCredentials)
}

func TestLogin_ReplacesPreviousSession(t *testing.T) {
	svc, _, _, _ := newSvc(t)
	register(t, svc)
	ctx := context.Background()
	creds := dto.LoginDTO{Email: "alice@example.com", Password: "Secret123!"}

	first, _, err := svc.Login(ctx, creds)
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, creds)
	require.NoError(t, err)

	// First session's refresh token no longer matches the slot.
	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: first.RefreshToken})
	require.ErrorIs(t, err, customErrors.ErrRefreshRevoked)
}

func TestRefresh_RotationAndReuse(t *testing.T) {
	svc, _, _, _ := newSvc(t)
	register(t, svc)
	ctx := context.Background()

	pair, _, err := svc.Login(ctx, dto.LoginDTO{Email: "alice@example.com", Password: "Secret123!"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// Old token is now revoked, and its reuse kills the live session.
	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.ErrorIs(t, err, customErrors.ErrRefreshRevoked)

	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: rotated.RefreshToken})
	require.ErrorIs(t, err, customErrors.ErrRefreshRevoked,
		"reuse detection must invalidate the rotated token too")
}

func TestRefresh_NewTokenAcceptedOnce(t *testing.T) {
	svc, _, _, _ := newSvc(t)
	register(t, svc)
	ctx := context.Background()

	pair, _, err := svc.Login(ctx, dto.LoginDTO{Email: "alice@example.com", Password: "Secret123!"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)

	third, err := svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: second.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, second.RefreshToken, third.RefreshToken)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	svc, _, _, _ := newSvc(t)
	register(t, svc)
	ctx := context.Background()

	pair, _, err := svc.Login(ctx, dto.LoginDTO{Email: "alice@example.com", Password: "Secret123!"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.AccessToken})
	require.ErrorIs(t, err, customErrors.ErrTokenKindMismatch)
}

func TestRefresh_DeactivatedUser(t *testing.T) {
	svc, ur, _, _ := newSvc(t)
	sum := register(t, svc)
	ctx := context.Background()

	pair, _, err := svc.Login(ctx, dto.LoginDTO{Email: "alice@example.com", Password: "Secret123!"})
	require.NoError(t, err)
	require.NoError(t, ur.SetActive(ctx, sum.ID, false))

	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.ErrorIs(t, err, customErrors.ErrRefreshRevoked)
}

func TestLogout_RevokesAndIsIdempotent(t *testing.T) {
	svc, _, _, _ := newSvc(t)
	sum := register(t, svc)
	ctx := context.Background()

	pair, _, err := svc.Login(ctx, dto.LoginDTO{Email: "alice@example.com", Password: "Secret123!"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sum.ID))
	require.NoError(t, svc.Logout(ctx, sum.ID), "second logout must not fail")

	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.ErrorIs(t, err, customErrors.ErrRefreshRevoked)
}

func TestFullLifecycle(t *testing.T) {
	svc, _, _, _ := newSvc(t)
	ctx := context.Background()

	sum, err := svc.Register(ctx, dto.RegisterDTO{
		Email: "alice@example.com", Password: "Secret123!", Username: "alice",
	})
	require.NoError(t, err)

	pair, _, err := svc.Login(ctx, dto.LoginDTO{Email: "alice@example.com", Password: "Secret123!"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)

	rotatedAgain, err := svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: rotated.RefreshToken})
	require.NoError(t, err, "freshly rotated token must be accepted once")

	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: rotated.RefreshToken})
	require.ErrorIs(t, err, customErrors.ErrRefreshRevoked, "rotated-out token must be rejected")

	// Reuse wiped the session, so log in again before exercising logout.
	pair, _, err = svc.Login(ctx, dto.LoginDTO{Email: "alice@example.com", Password: "Secret123!"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, sum.ID))

	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.ErrorIs(t, err, customErrors.ErrRefreshRevoked)
	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: rotatedAgain.RefreshToken})
	require.ErrorIs(t, err, customErrors.ErrRefreshRevoked)
}
