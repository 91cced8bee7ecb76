package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/arbiter-io/arbiter/internal/apikeys"
	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/shared"
)

// CredentialVerifier checks an api key secret and returns the matching
// credential record.
type CredentialVerifier interface {
	Verify(ctx context.Context, secret string) (apikeys.APIKey, error)
}

// Service resolves incoming credential material into principals.
type Service struct {
	repo Repository
	keys CredentialVerifier
}

// NewService constructs a Service.
func NewService(repo Repository, keys CredentialVerifier) *Service {
	return &Service{repo: repo, keys: keys}
}

// Authenticate validates email/password credentials. Every failure mode
// collapses into ErrUnauthenticated so callers cannot distinguish an unknown
// email from a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return Account{}, shared.ErrUnauthenticated
	}
	if !account.IsActive {
		return Account{}, shared.ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Account{}, shared.ErrUnauthenticated
	}
	return account, nil
}

// ResolveUser turns a stored user id into a user principal. Unknown and
// inactive accounts both fail authentication.
func (s *Service) ResolveUser(ctx context.Context, userID string) (authz.UserPrincipal, error) {
	account, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return authz.UserPrincipal{}, shared.ErrUnauthenticated
		}
		return authz.UserPrincipal{}, fmt.Errorf("auth: resolve user: %w", err)
	}
	if !account.IsActive {
		return authz.UserPrincipal{}, shared.ErrUnauthenticated
	}
	return authz.UserPrincipal{
		ID:          account.ID,
		IsActive:    account.IsActive,
		IsSuperuser: account.IsSuperuser,
	}, nil
}

// ResolveAPIKey verifies a bearer secret and turns it into a credential
// principal bound to its organization and role.
func (s *Service) ResolveAPIKey(ctx context.Context, secret string) (authz.CredentialPrincipal, error) {
	key, err := s.keys.Verify(ctx, secret)
	if err != nil {
		return authz.CredentialPrincipal{}, err
	}
	return authz.CredentialPrincipal{
		ID:             key.ID,
		OrganizationID: key.OrganizationID,
		RoleID:         key.RoleID,
		IsActive:       key.IsActive,
	}, nil
}
