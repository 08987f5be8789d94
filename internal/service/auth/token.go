package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

// TokenService verifies access tokens issued by the identity provider the devices log in with.
// Tokens are HS256 with user_id, role and exp claims.
type TokenService struct {
	secret    string
	AccessTTL time.Duration
	now       func() time.Time
}

func NewTokenService(secret string, accessTTL time.Duration) *TokenService {
	return &TokenService{
		secret:    secret,
		AccessTTL: accessTTL,
		now:       time.Now,
	}
}

// Issue signs an access token for user. Used by tooling and tests.
func (s *TokenService) Issue(user *models.User) (string, error) {
	issuedAt := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, NewAccessClaim(user, issuedAt, s.AccessTTL, uuid.New()))
	return token.SignedString([]byte(s.secret))
}

// RoleCheck validates token and returns the user it was issued to.
func (s *TokenService) RoleCheck(ctx context.Context, token string) (*models.User, error) {
	ctx = wrap.WithAction(ctx, "validate_token")

	parsedToken, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, types.ErrInvalidToken
		}
		return []byte(s.secret), nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsedToken.Valid {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: %v", types.ErrInvalidToken, err))
	}

	mc, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, wrap.Error(ctx, types.ErrInvalidToken)
	}

	userID, _ := mc["user_id"].(string)
	if userID == "" {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: missing 'user_id' claim", types.ErrInvalidToken))
	}

	role, _ := mc["role"].(string)
	if role == "" {
		role = types.DriverRole.String()
	}

	return &models.User{ID: userID, Role: types.UserRole(role)}, nil
}

func NewAccessClaim(user *models.User, issuedAt time.Time, accessTTL time.Duration, tokenID uuid.UUID) jwt.Claims {
	return jwt.MapClaims{
		"jti":     tokenID.String(),
		"user_id": user.ID,
		"role":    user.Role.String(),
		"iat":     issuedAt.Unix(),
		"exp":     issuedAt.Add(accessTTL).Unix(),
	}
}
