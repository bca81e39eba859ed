package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Query is a resolved timeline window. Limit zero means no limit.
type Query struct {
	Filters TimelineFilters
	Offset  int
	Limit   int
}

type Repository interface {
	Timeline(ctx context.Context, q Query) ([]TimelineRow, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Timeline(ctx context.Context, q Query) ([]TimelineRow, error) {
	var conditions []string
	var args []any
	f := q.Filters

	if !f.From.IsZero() {
		args = append(args, f.From)
		conditions = append(conditions, fmt.Sprintf("a.occurred_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To.AddDate(0, 0, 1))
		conditions = append(conditions, fmt.Sprintf("a.occurred_at < $%d", len(args)))
	}
	if f.Actor != "" {
		if id, err := strconv.ParseInt(f.Actor, 10, 64); err == nil {
			args = append(args, id)
			conditions = append(conditions, fmt.Sprintf("a.actor_id = $%d", len(args)))
		} else {
			args = append(args, "%"+f.Actor+"%")
			conditions = append(conditions, fmt.Sprintf("u.email ILIKE $%d", len(args)))
		}
	}
	if f.Entity != "" {
		args = append(args, f.Entity)
		conditions = append(conditions, fmt.Sprintf("a.entity = $%d", len(args)))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		conditions = append(conditions, fmt.Sprintf("a.action = $%d", len(args)))
	}

	query := `SELECT a.id, a.occurred_at, a.actor_id, COALESCE(u.email, ''), a.action, a.entity, a.entity_id, a.meta
		FROM activity_logs a
		LEFT JOIN users u ON u.id = a.actor_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.occurred_at DESC, a.id DESC"
	if q.Limit > 0 {
		args = append(args, q.Limit, q.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TimelineRow, error) {
		var t TimelineRow
		var meta []byte
		if err := row.Scan(&t.ID, &t.At, &t.ActorID, &t.ActorEmail, &t.Action, &t.Entity, &t.EntityID, &meta); err != nil {
			return t, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &t.Meta); err != nil {
				return t, fmt.Errorf("decode meta of activity %d: %w", t.ID, err)
			}
		}
		return t, nil
	})
}
