package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/valuation-service/internal/domain"
)

// Operator is a consultant or appraiser known to the identity directory.
type Operator struct {
	ID          string
	DisplayName string
	Email       string
	Role        domain.Role
	Active      bool
}

// OperatorFilter captures directory listing parameters.
type OperatorFilter struct {
	Role   *domain.Role
	Active *bool
	Limit  int
	Offset int
}

// OperatorRepository encapsulates the operator directory.
type OperatorRepository interface {
	GetByID(ctx context.Context, id string) (*Operator, error)
	List(ctx context.Context, filter OperatorFilter) ([]Operator, error)
}

type operatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository instantiates repository.
func NewOperatorRepository(pool *pgxpool.Pool) OperatorRepository {
	return &operatorRepository{pool: pool}
}

func (r *operatorRepository) GetByID(ctx context.Context, id string) (*Operator, error) {
	const query = `
        SELECT id, display_name, email, role, active
        FROM operators WHERE id=$1`
	var op Operator
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&op.ID,
		&op.DisplayName,
		&op.Email,
		&op.Role,
		&op.Active,
	); err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *operatorRepository) List(ctx context.Context, filter OperatorFilter) ([]Operator, error) {
	base := `SELECT id, display_name, email, role, active FROM operators`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY display_name ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOperators(rows)
}

func scanOperators(rows pgx.Rows) ([]Operator, error) {
	var result []Operator
	for rows.Next() {
		var op Operator
		if err := rows.Scan(&op.ID, &op.DisplayName, &op.Email, &op.Role, &op.Active); err != nil {
			return nil, err
		}
		result = append(result, op)
	}
	return result, rows.Err()
}
