package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arbiter-io/arbiter/internal/apikeys"
	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/shared"
)

type mockRepository struct {
	byEmail map[string]Account
	byID    map[string]Account
}

func newMockRepository() *mockRepository {
	return &mockRepository{byEmail: make(map[string]Account), byID: make(map[string]Account)}
}

func (m *mockRepository) add(account Account) {
	m.byEmail[account.Email] = account
	m.byID[account.ID] = account
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	account, ok := m.byEmail[email]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return account, nil
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (Account, error) {
	account, ok := m.byID[id]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return account, nil
}

type mockVerifier struct {
	keys map[string]apikeys.APIKey
}

func (m *mockVerifier) Verify(ctx context.Context, secret string) (apikeys.APIKey, error) {
	key, ok := m.keys[secret]
	if !ok {
		return apikeys.APIKey{}, shared.ErrUnauthenticated
	}
	if !key.IsActive {
		return apikeys.APIKey{}, shared.ErrCredentialInactive
	}
	return key, nil
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthenticate(t *testing.T) {
	repo := newMockRepository()
	repo.add(Account{ID: "user-1", Email: "ana@example.com", PasswordHash: hashFor(t, "correct horse"), IsActive: true})
	repo.add(Account{ID: "user-2", Email: "off@example.com", PasswordHash: hashFor(t, "whatever"), IsActive: false})
	svc := NewService(repo, &mockVerifier{})

	account, err := svc.Authenticate(context.Background(), "ana@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "user-1", account.ID)

	_, err = svc.Authenticate(context.Background(), "ana@example.com", "wrong")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)

	_, err = svc.Authenticate(context.Background(), "off@example.com", "whatever")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestResolveUser(t *testing.T) {
	repo := newMockRepository()
	repo.add(Account{ID: "user-1", Email: "ana@example.com", IsActive: true, IsSuperuser: true})
	repo.add(Account{ID: "user-2", Email: "off@example.com", IsActive: false})
	svc := NewService(repo, &mockVerifier{})

	principal, err := svc.ResolveUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.ID)
	assert.True(t, principal.IsSuperuser)

	_, err = svc.ResolveUser(context.Background(), "user-2")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)

	_, err = svc.ResolveUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestResolveAPIKey(t *testing.T) {
	verifier := &mockVerifier{keys: map[string]apikeys.APIKey{
		"good-secret": {ID: "key-1", OrganizationID: "org-1", RoleID: "role-api", IsActive: true},
	}}
	svc := NewService(newMockRepository(), verifier)

	principal, err := svc.ResolveAPIKey(context.Background(), "good-secret")
	require.NoError(t, err)
	assert.Equal(t, authz.CredentialPrincipal{ID: "key-1", OrganizationID: "org-1", RoleID: "role-api", IsActive: true}, principal)

	_, err = svc.ResolveAPIKey(context.Background(), "bad-secret")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}
