package identity

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/auth"
)

// Service implements account registration, login and logout.
type Service struct {
	users       UserRepository
	revocations auth.RevocationStore
	secret      []byte
	tokenTTL    time.Duration
	log         zerolog.Logger
}

func NewService(users UserRepository, revocations auth.RevocationStore, secret []byte, tokenTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		users:       users,
		revocations: revocations,
		secret:      secret,
		tokenTTL:    tokenTTL,
		log:         log.With().Str("component", "identity").Logger(),
	}
}

// RegisterInput carries a new account registration.
type RegisterInput struct {
	Username string
	Password string
	Role     auth.Role
	PersonID int64
}

// Register creates a credential. Provider accounts must be linked to a
// person record; usernames are unique.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	fields := map[string]string{}
	if in.Username == "" {
		fields["username"] = "required"
	}
	if in.Password == "" {
		fields["password"] = "required"
	}
	if in.Role == "" {
		fields["role"] = "required"
	}
	if len(fields) > 0 {
		return nil, apperr.ValidationFields("missing required fields", fields)
	}
	if !in.Role.Valid() {
		return nil, apperr.Validationf("invalid role %q", in.Role)
	}
	if in.Role == auth.RoleProvider && in.PersonID == 0 {
		return nil, apperr.Validation("person_id is required for provider accounts")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &User{
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         in.Role,
		PersonID:     in.PersonID,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")
	return u, nil
}

// Login verifies the credentials and issues an access token. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return "", apperr.Unauthenticated("invalid username or password")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", apperr.Unauthenticated("invalid username or password")
	}

	token, err := auth.IssueToken(s.secret, s.tokenTTL, u.ID, u.Role, u.PersonID)
	if err != nil {
		return "", apperr.Internal(err)
	}

	s.log.Info().Int64("user_id", u.ID).Msg("user logged in")
	return token, nil
}

// Logout revokes the presented credential by its jti. The token stays
// rejected even while its expiry is still in the future.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperr.Unauthenticated("missing authorization header")
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.TokenType); err != nil {
		return apperr.Internal(err)
	}
	s.log.Info().Str("jti", claims.ID).Msg("token revoked")
	return nil
}
