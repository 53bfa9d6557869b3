package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/valuation-service/internal/domain"
	"github.com/spec-kit/valuation-service/internal/repository"
	apperrors "github.com/spec-kit/valuation-service/pkg/util"
)

// Identity is the resolved view of an actor. The core trusts the resolved
// role and never re-derives it from raw token claims.
type Identity struct {
	ActorRef    string
	Role        domain.Role
	DisplayName string
}

// Provider resolves actor references against the operator directory.
type Provider interface {
	Resolve(ctx context.Context, actorRef string) (*Identity, error)
}

type directoryProvider struct {
	operators repository.OperatorRepository
}

// NewDirectoryProvider builds a Provider over the operator directory.
func NewDirectoryProvider(operators repository.OperatorRepository) Provider {
	return &directoryProvider{operators: operators}
}

func (p *directoryProvider) Resolve(ctx context.Context, actorRef string) (*Identity, error) {
	op, err := p.operators.GetByID(ctx, actorRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("unknown actor")
		}
		return nil, apperrors.MapError(err)
	}
	if !op.Active {
		return nil, apperrors.NewForbidden("operator deactivated")
	}
	if !domain.KnownRole(op.Role) {
		return nil, apperrors.NewForbidden("operator has no workflow role")
	}
	return &Identity{
		ActorRef:    op.ID,
		Role:        op.Role,
		DisplayName: op.DisplayName,
	}, nil
}
