package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/pagination"
)

const tokenPrefix = "itk_"

type UserTokenRepository interface {
	Create(ctx context.Context, token *domain.UserToken) error
	GetByHash(ctx context.Context, hash string) (*domain.UserToken, error)
	ListByUserPage(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*pagination.Page[*domain.UserToken], error)
	Revoke(ctx context.Context, id string) error
}

// IssuedToken carries the plaintext token, which is only available at issue time.
type IssuedToken struct {
	Token string
	Key   *domain.UserToken
}

type AuthService struct {
	tokenRepo UserTokenRepository
	uuidGen   UUIDGenerator
}

func NewAuthService(tokenRepo UserTokenRepository, uuidGen UUIDGenerator) *AuthService {
	if uuidGen == nil {
		uuidGen = &DefaultUUIDGenerator{}
	}
	return &AuthService{
		tokenRepo: tokenRepo,
		uuidGen:   uuidGen,
	}
}

// IssueToken creates a bearer token for userID.
func (s *AuthService) IssueToken(ctx context.Context, userID, name string) (*IssuedToken, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("user ID is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("token name is required")
	}

	token, err := generateToken()
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to generate token", err)
	}

	key := domain.NewUserToken(s.uuidGen.NewString(), userID, name, hashToken(token), utcNow(), nil)
	if err := domain.ValidateUserToken(key); err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Create(ctx, key); err != nil {
		return nil, err
	}

	return &IssuedToken{Token: token, Key: key}, nil
}

// ResolveUser returns the user a bearer token belongs to.
func (s *AuthService) ResolveUser(ctx context.Context, token string) (string, error) {
	if !IsValidToken(token) {
		return "", domain.ErrInvalidToken
	}

	key, err := s.tokenRepo.GetByHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return "", domain.ErrInvalidToken
		}
		return "", err
	}

	if key.IsRevoked() {
		return "", domain.ErrTokenRevoked
	}

	return key.UserID, nil
}

func (s *AuthService) RevokeToken(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return domain.NewValidationError("token ID is required")
	}

	return s.tokenRepo.Revoke(ctx, tokenID)
}

// ListTokens returns one page of userID's tokens, newest first.
func (s *AuthService) ListTokens(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*pagination.Page[*domain.UserToken], error) {
	if userID == "" {
		return nil, domain.NewValidationError("user ID is required")
	}

	return s.tokenRepo.ListByUserPage(ctx, userID, cursor, limit)
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return tokenPrefix + hex.EncodeToString(bytes), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func IsValidToken(token string) bool {
	if !strings.HasPrefix(token, tokenPrefix) {
		return false
	}
	hexPart := token[len(tokenPrefix):]
	if len(hexPart) != 64 {
		return false
	}
	for _, c := range hexPart {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
