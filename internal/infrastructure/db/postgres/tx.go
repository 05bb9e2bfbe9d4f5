package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so the same query code runs
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
		ReadOnly:  false,
	})
	if err != nil {
		return err
	}

	defer func() {
		// rollback on panic so the connection is not leaked
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// listPage runs the count and then the page query with identical filters.
// The two are not isolated from concurrent writes.
func listPage[T any](ctx context.Context, db DBTX, q *query.Query, scan func(rowScanner) (T, error)) ([]T, int, error) {
	countSQL, countArgs := q.CountSQL()
	var total int
	if err := db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	out, err := queryAll(ctx, db, q, scan)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func queryAll[T any](ctx context.Context, db DBTX, q *query.Query, scan func(rowScanner) (T, error)) ([]T, error) {
	listSQL, args := q.SQL()
	rows, err := db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// applySpec adds the filter and presence predicates of spec to q.
func applySpec(q *query.Query, spec query.Spec, m query.Mapping) error {
	if err := q.ApplyFilters(spec.Filters, m); err != nil {
		return err
	}
	if err := q.ApplyNotFilters(spec.NotFilters, m); err != nil {
		return err
	}
	if err := q.ApplyPresence(spec.Presence, m); err != nil {
		return err
	}
	return nil
}

func applyOrder(q *query.Query, lo query.ListOptions, m query.Mapping) error {
	if err := q.ApplySort(lo.Sort, m); err != nil {
		return err
	}
	q.ApplyPagination(lo.Limit, lo.Offset, false)
	return nil
}
