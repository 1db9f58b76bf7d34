package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserTokenRepository struct {
	mock.Mock
}

func (m *MockUserTokenRepository) Create(ctx context.Context, token *domain.UserToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockUserTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.UserToken, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserToken), args.Error(1)
}

func (m *MockUserTokenRepository) ListByUserPage(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*pagination.Page[*domain.UserToken], error) {
	args := m.Called(ctx, userID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.Page[*domain.UserToken]), args.Error(1)
}

func (m *MockUserTokenRepository) Revoke(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestAuthService_IssueToken(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserTokenRepository)
	svc := NewAuthService(repo, NewMockUUIDGenerator("key-123"))

	repo.On("Create", ctx, mock.MatchedBy(func(k *domain.UserToken) bool {
		return k.ID == "key-123" && k.UserID == "user-1" && k.Name == "laptop" && len(k.KeyHash) == 64
	})).Return(nil)

	issued, err := svc.IssueToken(ctx, "user-1", "laptop")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(issued.Token, tokenPrefix))
	assert.True(t, IsValidToken(issued.Token))
	assert.Equal(t, hashToken(issued.Token), issued.Key.KeyHash)
	assert.NotContains(t, issued.Key.KeyHash, issued.Token)
	repo.AssertExpectations(t)
}

func TestAuthService_IssueToken_Validation(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserTokenRepository)
	svc := NewAuthService(repo, NewMockUUIDGenerator("key-123"))

	_, err := svc.IssueToken(ctx, "", "laptop")
	assert.Error(t, err)

	_, err = svc.IssueToken(ctx, "user-1", "  ")
	assert.Error(t, err)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_IssueToken_RepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserTokenRepository)
	svc := NewAuthService(repo, NewMockUUIDGenerator("key-123"))
	repo.On("Create", ctx, mock.Anything).Return(errors.New("db down"))

	_, err := svc.IssueToken(ctx, "user-1", "laptop")
	assert.EqualError(t, err, "db down")
}

func TestAuthService_ResolveUser(t *testing.T) {
	ctx := context.Background()
	token, err := generateToken()
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		repo := new(MockUserTokenRepository)
		svc := NewAuthService(repo, nil)
		repo.On("GetByHash", ctx, hashToken(token)).
			Return(domain.NewUserToken("key-1", "user-9", "cli", hashToken(token), time.Now(), nil), nil)

		userID, err := svc.ResolveUser(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-9", userID)
	})

	t.Run("malformed token", func(t *testing.T) {
		repo := new(MockUserTokenRepository)
		svc := NewAuthService(repo, nil)

		_, err := svc.ResolveUser(ctx, "not-a-token")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
		repo.AssertNotCalled(t, "GetByHash", mock.Anything, mock.Anything)
	})

	t.Run("unknown token", func(t *testing.T) {
		repo := new(MockUserTokenRepository)
		svc := NewAuthService(repo, nil)
		repo.On("GetByHash", ctx, hashToken(token)).Return(nil, domain.ErrTokenNotFound)

		_, err := svc.ResolveUser(ctx, token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("revoked token", func(t *testing.T) {
		repo := new(MockUserTokenRepository)
		svc := NewAuthService(repo, nil)
		revokedAt := time.Now()
		repo.On("GetByHash", ctx, hashToken(token)).
			Return(domain.NewUserToken("key-1", "user-9", "cli", hashToken(token), time.Now(), &revokedAt), nil)

		_, err := svc.ResolveUser(ctx, token)
		assert.ErrorIs(t, err, domain.ErrTokenRevoked)
	})
}

func TestAuthService_RevokeAndList(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserTokenRepository)
	svc := NewAuthService(repo, nil)

	assert.Error(t, svc.RevokeToken(ctx, ""))
	_, err := svc.ListTokens(ctx, "", nil, 10)
	assert.Error(t, err)

	after := &pagination.Cursor{LastID: "key-9", Timestamp: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
	repo.On("Revoke", ctx, "key-1").Return(nil)
	repo.On("ListByUserPage", ctx, "user-1", after, 10).
		Return(&pagination.Page[*domain.UserToken]{Items: []*domain.UserToken{{ID: "key-2"}}}, nil)

	require.NoError(t, svc.RevokeToken(ctx, "key-1"))
	page, err := svc.ListTokens(ctx, "user-1", after, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)
	repo.AssertExpectations(t)
}

func TestIsValidToken(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{tokenPrefix + strings.Repeat("a", 64), true},
		{tokenPrefix + strings.Repeat("A", 64), true},
		{tokenPrefix + strings.Repeat("a", 63), false},
		{tokenPrefix + strings.Repeat("g", 64), false},
		{"ntx_" + strings.Repeat("a", 64), false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidToken(tt.token), tt.token)
	}
}
