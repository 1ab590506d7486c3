package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a Postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsForeignKeyViolation reports whether err is a Postgres foreign key error.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// IsNoRows reports whether err means the row does not exist for the tenant.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// expectOne turns a zero-row update or delete into pgx.ErrNoRows.
func expectOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// scopedQuery accumulates WHERE predicates. The first predicate is always the
// tenant column, so no query built from it can escape the caller's business.
type scopedQuery struct {
	conds []string
	args  []interface{}
}

func tenantScope(column string, businessID uuid.UUID) *scopedQuery {
	return &scopedQuery{
		conds: []string{column + " = $1"},
		args:  []interface{}{businessID},
	}
}

// and adds a predicate; each "?" in cond is bound to arg.
func (q *scopedQuery) and(cond string, arg interface{}) *scopedQuery {
	q.args = append(q.args, arg)
	q.conds = append(q.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(q.args))))
	return q
}

func (q *scopedQuery) where() string {
	return " WHERE " + strings.Join(q.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders and their arguments.
func (q *scopedQuery) page(limit, offset int) string {
	q.args = append(q.args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(q.args)-1, len(q.args))
}
