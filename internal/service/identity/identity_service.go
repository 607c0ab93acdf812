package identity

import (
	"context"
	"errors"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/Domenick1991/ticketline/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// IdentityUseCase maps an authenticated identity to its role. Authentication
// itself happens upstream (JWT issued by the identity provider); this service
// owns only the role side of the session contract.
type IdentityUseCase interface {
	Resolve(ctx context.Context, email, name string) (*domain.Principal, error)
	Lookup(ctx context.Context, email string) (*domain.Principal, error)
}

type IdentityService struct {
	roles repository.RoleRepository
	log   zerolog.Logger
}

func NewIdentityService(roles repository.RoleRepository, log zerolog.Logger) *IdentityService {
	return &IdentityService{roles: roles, log: log}
}

// Resolve returns the stored principal for the email. First-seen identities
// are registered with the default user role; roles never come from the
// token itself.
func (s *IdentityService) Resolve(ctx context.Context, email, name string) (*domain.Principal, error) {
	if email == "" {
		return nil, domain.Errorf(domain.CodeValidation, "email is required")
	}

	p, err := s.roles.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		fresh := domain.Principal{Email: email, Name: name, Role: domain.RoleUser}
		if err := s.roles.Upsert(ctx, fresh); err != nil {
			return nil, err
		}
		s.log.Info().Str("email", email).Msg("registered first-seen identity")
		return &fresh, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Lookup is the read-only counterpart of Resolve: it never registers an
// identity, so it is safe on query endpoints.
func (s *IdentityService) Lookup(ctx context.Context, email string) (*domain.Principal, error) {
	if email == "" {
		return nil, domain.Errorf(domain.CodeValidation, "email is required")
	}

	p, err := s.roles.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Errorf(domain.CodeNotFound, "no identity for %s", email)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

var _ IdentityUseCase = (*IdentityService)(nil)
