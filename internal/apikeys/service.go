package apikeys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/roles"
	"github.com/arbiter-io/arbiter/internal/shared"
)

// RepositoryPort defines data access methods for API keys.
type RepositoryPort interface {
	Insert(ctx context.Context, key APIKey) (APIKey, error)
	Get(ctx context.Context, id string) (APIKey, error)
	GetByPrefix(ctx context.Context, prefix string) (APIKey, error)
	ListByOrganization(ctx context.Context, orgID string) ([]APIKey, error)
	ToggleActive(ctx context.Context, id string) (APIKey, error)
}

// RoleDirectory is the slice of the role registry the issuer needs.
type RoleDirectory interface {
	ExistsInScope(ctx context.Context, scope authz.Scope, roleID string) (bool, error)
	AdminRole(ctx context.Context) (roles.Role, error)
}

// UsageRecorder tracks successful machine authentications. Recording is
// best-effort and must never block or fail the authentication decision.
type UsageRecorder interface {
	RecordUse(ctx context.Context, prefix string, usedAt time.Time) error
}

// Service issues and verifies machine credentials.
type Service struct {
	repo   RepositoryPort
	roles  RoleDirectory
	usage  UsageRecorder
	logger *slog.Logger
}

// NewService builds Service instance. The usage recorder may be nil.
func NewService(repo RepositoryPort, roleDir RoleDirectory, usage UsageRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, roles: roleDir, usage: usage, logger: logger}
}

// Issue generates a new credential for an organization and returns the
// record together with the plaintext secret. The secret is shown exactly
// once; only its hash is stored. A failed issuance persists nothing.
func (s *Service) Issue(ctx context.Context, input IssueInput) (APIKey, string, error) {
	if input.OrganizationID == "" {
		return APIKey{}, "", fmt.Errorf("apikeys: organization id required: %w", shared.ErrInvalidCredentialConfig)
	}
	if !input.AccessType.Valid() {
		return APIKey{}, "", fmt.Errorf("apikeys: unknown access type %q: %w", input.AccessType, shared.ErrInvalidCredentialConfig)
	}

	roleID := input.RoleID
	switch input.AccessType {
	case AccessFull:
		if roleID != "" {
			return APIKey{}, "", fmt.Errorf("apikeys: role id is not accepted for full access: %w", shared.ErrInvalidCredentialConfig)
		}
		admin, err := s.roles.AdminRole(ctx)
		if err != nil {
			return APIKey{}, "", fmt.Errorf("apikeys: resolve admin role: %w", err)
		}
		roleID = admin.ID
	case AccessLimited:
		if roleID == "" {
			return APIKey{}, "", fmt.Errorf("apikeys: role id is required for limited access: %w", shared.ErrInvalidCredentialConfig)
		}
		visible, err := s.roles.ExistsInScope(ctx, authz.OrganizationScope(input.OrganizationID), roleID)
		if err != nil {
			return APIKey{}, "", err
		}
		if !visible {
			return APIKey{}, "", shared.ErrRoleNotInScope
		}
	}

	// Prefix collisions are vanishingly rare but the column is unique, so
	// one reroll is allowed before the error surfaces.
	for attempt := 0; ; attempt++ {
		secret, prefix, hash, err := GenerateSecret()
		if err != nil {
			return APIKey{}, "", err
		}

		record, err := s.repo.Insert(ctx, APIKey{
			ID:             uuid.NewString(),
			OrganizationID: input.OrganizationID,
			RoleID:         roleID,
			CreatedBy:      input.CreatedBy,
			AppName:        input.AppName,
			Prefix:         prefix,
			SecretHash:     hash,
			AccessType:     input.AccessType,
		})
		if err != nil {
			if errors.Is(err, ErrPrefixTaken) && attempt == 0 {
				continue
			}
			return APIKey{}, "", err
		}
		return record, secret, nil
	}
}

// Verify resolves a presented secret to its credential record: prefix
// lookup, constant-time hash comparison, then the active check. Inactive
// credentials fail unconditionally. A successful verification records usage
// best-effort.
func (s *Service) Verify(ctx context.Context, presented string) (APIKey, error) {
	if len(presented) <= PrefixWidth {
		return APIKey{}, shared.ErrUnauthenticated
	}

	key, err := s.repo.GetByPrefix(ctx, presented[:PrefixWidth])
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return APIKey{}, shared.ErrUnauthenticated
		}
		return APIKey{}, fmt.Errorf("apikeys: lookup: %w", err)
	}

	if !SecretMatches(presented, key.SecretHash) {
		return APIKey{}, shared.ErrUnauthenticated
	}
	if !key.IsActive {
		return APIKey{}, shared.ErrCredentialInactive
	}

	if s.usage != nil {
		if err := s.usage.RecordUse(ctx, key.Prefix, time.Now().UTC()); err != nil && s.logger != nil {
			s.logger.Warn("record apikey use", slog.String("prefix", key.Prefix), slog.Any("error", err))
		}
	}
	return key, nil
}

// ToggleActive flips the credential between active and inactive.
func (s *Service) ToggleActive(ctx context.Context, id string) (APIKey, error) {
	return s.repo.ToggleActive(ctx, id)
}

// Get fetches a credential record by id.
func (s *Service) Get(ctx context.Context, id string) (APIKey, error) {
	return s.repo.Get(ctx, id)
}

// ListByOrganization returns the organization's credential records.
func (s *Service) ListByOrganization(ctx context.Context, orgID string) ([]APIKey, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}
