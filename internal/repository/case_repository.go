package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/valuation-service/internal/domain"
)

// ErrClaimConflict is returned when another actor of the same role already
// owns the case.
var ErrClaimConflict = errors.New("case already claimed for role")

// ErrVersionConflict is returned when the case version moved underneath a
// transition write. The caller lost the race and must re-read.
var ErrVersionConflict = errors.New("case version conflict")

// CaseFilter captures listing parameters. Ownership filters distinguish
// "must be unassigned" from "must equal ref".
type CaseFilter struct {
	Statuses       []domain.CaseStatus
	Priorities     []domain.CasePriority
	ConsultantRef  *string
	AppraiserRef   *string
	UnassignedRole domain.Role
	Limit          int
	Offset         int
}

// CaseRepository is the narrow interface to the system of record. Claim and
// ApplyTransition are single-statement compare-and-set writes; the record is
// never held locked across a round trip.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	ListWithFilter(ctx context.Context, filter CaseFilter) ([]domain.Case, error)
	Claim(ctx context.Context, caseID string, role domain.Role, actorRef string) (*domain.Case, error)
	ApplyTransition(ctx context.Context, c *domain.Case, expectedVersion int64, entry domain.TimelineEntry, comms []domain.CommunicationEntry) error
	Timeline(ctx context.Context, caseID string) ([]domain.TimelineEntry, error)
	Communications(ctx context.Context, caseID string) ([]domain.CommunicationEntry, error)
}

type caseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository instantiates the Postgres-backed repository.
func NewCaseRepository(pool *pgxpool.Pool) CaseRepository {
	return &caseRepository{pool: pool}
}

const caseColumns = `id, status, priority, contact_full_name, contact_email, contact_phone,
       spec_shape, spec_carat_weight, spec_color, spec_clarity, spec_cut, spec_polish, spec_symmetry, spec_fluorescence,
       consultant_ref, appraiser_ref, estimated_value, receipt_number, version, created_at, updated_at`

func (r *caseRepository) Create(ctx context.Context, c *domain.Case) error {
	const query = `
        INSERT INTO cases (status, priority, contact_full_name, contact_email, contact_phone,
            spec_shape, spec_carat_weight, spec_color, spec_clarity, spec_cut, spec_polish, spec_symmetry, spec_fluorescence)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		c.Status,
		c.Priority,
		c.Contact.FullName,
		c.Contact.Email,
		c.Contact.Phone,
		c.Spec.Shape,
		c.Spec.CaratWeight,
		c.Spec.Color,
		c.Spec.Clarity,
		c.Spec.Cut,
		c.Spec.Polish,
		c.Spec.Symmetry,
		c.Spec.Fluorescence,
	).Scan(&c.ID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
}

func (r *caseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id=$1`, caseColumns)
	return scanCase(r.pool.QueryRow(ctx, query, id))
}

// Claim sets the role's owner reference from null to actorRef in one atomic
// statement. Re-claiming your own case succeeds silently; a different owner
// yields ErrClaimConflict. Status is never touched.
func (r *caseRepository) Claim(ctx context.Context, caseID string, role domain.Role, actorRef string) (*domain.Case, error) {
	column, err := ownerColumn(role)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
        UPDATE cases SET %s=$2, version=version+1, updated_at=NOW()
        WHERE id=$1 AND (%s IS NULL OR %s=$2)
        RETURNING %s`, column, column, column, caseColumns)
	c, err := scanCase(r.pool.QueryRow(ctx, query, caseID, actorRef))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	// Zero rows means either a missing case or a lost race; distinguish
	// with a plain read.
	if _, getErr := r.GetByID(ctx, caseID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrClaimConflict
}

// ApplyTransition persists the new status and appends the timeline entry in
// one transaction, guarded by an optimistic version check. On success the
// in-memory case is advanced to the stored version.
func (r *caseRepository) ApplyTransition(ctx context.Context, c *domain.Case, expectedVersion int64, entry domain.TimelineEntry, comms []domain.CommunicationEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const update = `
        UPDATE cases SET status=$2, estimated_value=$3, receipt_number=$4, version=version+1, updated_at=NOW()
        WHERE id=$1 AND version=$5
        RETURNING version, updated_at`
	if err := tx.QueryRow(ctx, update,
		c.ID,
		c.Status,
		c.EstimatedValue,
		c.ReceiptNumber,
		expectedVersion,
	).Scan(&c.Version, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVersionConflict
		}
		return err
	}

	const insertEntry = `
        INSERT INTO case_timeline (case_id, status, actor_ref, note, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, seq`
	if err := tx.QueryRow(ctx, insertEntry,
		c.ID,
		entry.Status,
		entry.ActorRef,
		entry.Note,
		entry.Timestamp,
	).Scan(&entry.ID, &entry.Seq); err != nil {
		return err
	}
	entry.CaseID = c.ID

	const insertComm = `
        INSERT INTO case_communications (case_id, channel, actor_ref, message, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, seq`
	for i := range comms {
		if err := tx.QueryRow(ctx, insertComm,
			c.ID,
			comms[i].Channel,
			comms[i].ActorRef,
			comms[i].Message,
			comms[i].Timestamp,
		).Scan(&comms[i].ID, &comms[i].Seq); err != nil {
			return err
		}
		comms[i].CaseID = c.ID
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	c.Timeline = append(c.Timeline, entry)
	c.Communications = append(c.Communications, comms...)
	return nil
}

// Timeline returns entries in acceptance order: seq is assigned by the
// store when the transition commits, so the order holds across app
// instances regardless of clock skew.
func (r *caseRepository) Timeline(ctx context.Context, caseID string) ([]domain.TimelineEntry, error) {
	const query = `
        SELECT id, seq, case_id, status, actor_ref, note, created_at
        FROM case_timeline WHERE case_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []domain.TimelineEntry
	for rows.Next() {
		var entry domain.TimelineEntry
		if err := rows.Scan(&entry.ID, &entry.Seq, &entry.CaseID, &entry.Status, &entry.ActorRef, &entry.Note, &entry.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *caseRepository) Communications(ctx context.Context, caseID string) ([]domain.CommunicationEntry, error) {
	const query = `
        SELECT id, seq, case_id, channel, actor_ref, message, created_at
        FROM case_communications WHERE case_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []domain.CommunicationEntry
	for rows.Next() {
		var entry domain.CommunicationEntry
		if err := rows.Scan(&entry.ID, &entry.Seq, &entry.CaseID, &entry.Channel, &entry.ActorRef, &entry.Message, &entry.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *caseRepository) ListWithFilter(ctx context.Context, filter CaseFilter) ([]domain.Case, error) {
	base := fmt.Sprintf(`SELECT %s FROM cases`, caseColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ConsultantRef != nil {
		args = append(args, *filter.ConsultantRef)
		clauses = append(clauses, fmt.Sprintf("consultant_ref=$%d", len(args)))
	}
	if filter.AppraiserRef != nil {
		args = append(args, *filter.AppraiserRef)
		clauses = append(clauses, fmt.Sprintf("appraiser_ref=$%d", len(args)))
	}
	switch filter.UnassignedRole {
	case domain.RoleConsultant:
		clauses = append(clauses, "consultant_ref IS NULL")
	case domain.RoleAppraiser:
		clauses = append(clauses, "appraiser_ref IS NULL")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCases(rows)
}

func ownerColumn(role domain.Role) (string, error) {
	switch role {
	case domain.RoleConsultant:
		return "consultant_ref", nil
	case domain.RoleAppraiser:
		return "appraiser_ref", nil
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*domain.Case, error) {
	var c domain.Case
	if err := row.Scan(
		&c.ID,
		&c.Status,
		&c.Priority,
		&c.Contact.FullName,
		&c.Contact.Email,
		&c.Contact.Phone,
		&c.Spec.Shape,
		&c.Spec.CaratWeight,
		&c.Spec.Color,
		&c.Spec.Clarity,
		&c.Spec.Cut,
		&c.Spec.Polish,
		&c.Spec.Symmetry,
		&c.Spec.Fluorescence,
		&c.ConsultantRef,
		&c.AppraiserRef,
		&c.EstimatedValue,
		&c.ReceiptNumber,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCases(rows pgx.Rows) ([]domain.Case, error) {
	var result []domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}
