package enquiries

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gearhub/gearhub/internal/platform/db"
	"github.com/gearhub/gearhub/internal/platform/httpx"
)

var ErrNotFound = fmt.Errorf("enquiry %w", httpx.ErrNotFound)

type Repository interface {
	Create(ctx context.Context, e Enquiry) (int64, error)
	Get(ctx context.Context, id int64) (*Enquiry, error)
	List(ctx context.Context, req ListRequest) ([]Enquiry, int, error)
	Close(ctx context.Context, id, closedBy int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const enquiryColumns = `e.id, e.name, e.email, e.phone, e.company, e.product_id, COALESCE(p.name, ''), e.message,
	e.status, e.closed_by, e.closed_at, e.created_at`

func scanEnquiry(row pgx.Row) (Enquiry, error) {
	var e Enquiry
	var status string
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.Company, &e.ProductID, &e.ProductName, &e.Message,
		&status, &e.ClosedBy, &e.ClosedAt, &e.CreatedAt)
	e.Status = Status(status)
	return e, err
}

func (r *repository) Create(ctx context.Context, e Enquiry) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO enquiries (name, email, phone, company, product_id, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		e.Name, e.Email, e.Phone, e.Company, e.ProductID, e.Message, string(StatusOpen)).Scan(&id)
	return id, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Enquiry, error) {
	e, err := scanEnquiry(r.pool.QueryRow(ctx, `SELECT `+enquiryColumns+`
		FROM enquiries e LEFT JOIN products p ON p.id = e.product_id
		WHERE e.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Enquiry, int, error) {
	var conditions []string
	var args []any
	if req.Status != nil {
		args = append(args, string(*req.Status))
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(e.name ILIKE $%[1]d OR e.email ILIKE $%[1]d OR e.company ILIKE $%[1]d)", len(args)))
	}
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM enquiries e "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, req.Limit, req.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s
		FROM enquiries e LEFT JOIN products p ON p.id = e.product_id
		%s
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT $%d OFFSET $%d`, enquiryColumns, whereClause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Enquiry, error) {
		return scanEnquiry(row)
	})
	return items, total, err
}

func (r *repository) Close(ctx context.Context, id, closedBy int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE enquiries SET status = $1, closed_by = $2, closed_at = NOW()
		WHERE id = $3`, string(StatusClosed), closedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
