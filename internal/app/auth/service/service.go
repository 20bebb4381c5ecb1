package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/alexedwards/argon2id"
	"github.com/ecomanager/ecomanager/internal/app/auth/jwt"
	customErrors "github.com/ecomanager/ecomanager/internal/domain/auth/errors"
	"github.com/ecomanager/ecomanager/internal/domain/auth/model"
	"github.com/ecomanager/ecomanager/internal/domain/auth/repo"
	"github.com/ecomanager/ecomanager/internal/transport/http/dto"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type authService struct {
	userRepo repo.UserRepo
	ledger   repo.SessionLedger
	codec    *jwt.Codec
	v        *validator.Validate
}

type Service interface {
	// Register creates the account but does not log it in: the caller has
	// to present credentials to Login afterwards.
	Register(ctx context.Context, in dto.RegisterDTO) (model.Summary, error)
	Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, model.Summary, error)
	Refresh(ctx context.Context, in dto.RefreshDTO) (model.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

func New(ur repo.UserRepo, ledger repo.SessionLedger, codec *jwt.Codec, v *validator.Validate) Service {
	return &authService{userRepo: ur, ledger: ledger, codec: codec, v: v}
}

// NewValidator returns a validator with the password-strength rule
// registered: at least 8 runes, one upper-case letter and one digit.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		pwd := fl.Field().String()
		var hasUpper, hasDigit bool
		runes := 0
		for _, r := range pwd {
			runes++
			if unicode.IsUpper(r) {
				hasUpper = true
			}
			if unicode.IsDigit(r) {
				hasDigit = true
			}
		}
		return runes >= 8 && hasUpper && hasDigit
	})
	return v
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.Summary, error) {
	if err := a.v.Struct(in); err != nil {
		return model.Summary{}, mapValidation(err)
	}

	passwordHash, err := argon2id.CreateHash(in.Password, argonParams)
	if err != nil {
		return model.Summary{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(in.Email),
		Username:     in.Username,
		PasswordHash: passwordHash,
		Role:         model.RoleUser,
		Active:       true,
	}
	if _, err = a.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.Summary{}, customErrors.ErrAlreadyExists
		}
		return model.Summary{}, err
	}

	return user.Summary(), nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, model.Summary, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, model.Summary{}, customErrors.NewInvalidArgument(err.Error())
	}

	// Unknown email, wrong password and a deactivated account all come
	// back as the same invalid-credentials error so the response never
	// confirms whether an address is registered.
	user, err := a.userRepo.GetUserByEmail(ctx, strings.ToLower(in.Email))
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, model.Summary{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.TokenPair{}, model.Summary{}, err
	}

	ok, err := argon2id.ComparePasswordAndHash(in.Password, user.PasswordHash)
	if err != nil {
		return model.TokenPair{}, model.Summary{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok || !user.Active {
		return model.TokenPair{}, model.Summary{}, customErrors.ErrInvalidCredentials
	}

	pair, err := a.issuePair(ctx, user)
	if err != nil {
		return model.TokenPair{}, model.Summary{}, err
	}
	return pair, user.Summary(), nil
}

func (a *authService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.codec.Verify(in.RefreshToken, jwt.KindRefresh)
	if err != nil {
		return model.TokenPair{}, err
	}
	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrTokenInvalid
	}

	stored, err := a.ledger.Current(ctx, uid)
	if err != nil {
		return model.TokenPair{}, err
	}
	if stored != hashJTI(claims.ID) {
		// A rotated-out token is coming back: treat it as theft and kill
		// the live session too, forcing a fresh login on every device.
		_ = a.ledger.Clear(ctx, uid)
		return model.TokenPair{}, customErrors.ErrRefreshRevoked
	}

	user, err := a.userRepo.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		_ = a.ledger.Clear(ctx, uid)
		return model.TokenPair{}, customErrors.ErrRefreshRevoked
	case err != nil:
		return model.TokenPair{}, err
	}
	if !user.Active {
		_ = a.ledger.Clear(ctx, uid)
		return model.TokenPair{}, customErrors.ErrRefreshRevoked
	}

	return a.issuePair(ctx, user)
}

func (a *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	// Idempotent: clearing an already-empty slot is not an error.
	return a.ledger.Clear(ctx, userID)
}

// issuePair mints an access/refresh pair and records the new refresh jti in
// the ledger, overwriting whatever was there. The overwrite is what makes
// one refresh token per user hold: the previous session's token stops
// matching the slot the moment a new pair is issued.
func (a *authService) issuePair(ctx context.Context, user model.User) (model.TokenPair, error) {
	at, atExp, err := a.codec.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return model.TokenPair{}, err
	}
	rt, rtExp, jti, err := a.codec.IssueRefreshToken(user.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	now := time.Now()
	if err := a.ledger.Put(ctx, user.ID, hashJTI(jti), rtExp.Sub(now)); err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       user.ID,
	}, nil
}

// Only a hash of the jti is persisted so a ledger dump alone cannot be
// replayed as a token identity.
func hashJTI(jti string) string {
	sum := sha256.Sum256([]byte(jti))
	return hex.EncodeToString(sum[:])
}

func mapValidation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Password" && fe.Tag() == "strongpwd" {
				return customErrors.ErrWeakPassword
			}
		}
	}
	return customErrors.NewInvalidArgument(err.Error())
}
