package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gearhub/gearhub/internal/platform/db"
	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/pricing"
)

var ErrNotFound = fmt.Errorf("order %w", httpx.ErrNotFound)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, req ListOrdersRequest) ([]OrderWithDetails, int, error)
	Create(ctx context.Context, o Order) (int64, error)
	Update(ctx context.Context, id int64, o Order) error
	ReplaceLines(ctx context.Context, orderID int64, lines []OrderLine) error
	UpdateStatus(ctx context.Context, id int64, status OrderStatus, actorID int64, reason string) error
	Delete(ctx context.Context, id int64) error
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const orderColumns = `o.id, o.doc_number, o.customer_id, o.quotation_id, o.order_date, o.status, o.notes,
	o.tax_rate, o.subtotal, o.tax_amount, o.total_amount, o.created_by, o.approved_by, o.approved_at,
	o.cancelled_reason, o.created_at, o.updated_at`

func scanOrder(row pgx.Row, extra ...any) (Order, error) {
	var o Order
	var status string
	dest := []any{&o.ID, &o.DocNumber, &o.CustomerID, &o.QuotationID, &o.OrderDate, &status, &o.Notes,
		&o.TaxRate, &o.Subtotal, &o.TaxAmount, &o.TotalAmount, &o.CreatedBy, &o.ApprovedBy, &o.ApprovedAt,
		&o.CancelledReason, &o.CreatedAt, &o.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Order{}, err
	}
	o.Status = OrderStatus(status)
	return o, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, order_id, line_order, product_id, sku, name, description, image_url,
		category, sub_category, brand, mrp, dealer_price, basis_kind, basis_amount, mode, discount, custom_price,
		quantity, gst_rate, is_detailed
		FROM order_lines WHERE order_id = $1 ORDER BY line_order, id`, id)
	if err != nil {
		return nil, err
	}
	o.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (OrderLine, error) {
		var l OrderLine
		var basisKind, mode string
		err := row.Scan(&l.ID, &l.OrderID, &l.LineOrder, &l.ProductID, &l.SKU, &l.Name, &l.Description, &l.ImageURL,
			&l.Category, &l.SubCategory, &l.Brand, &l.MRP, &l.DealerPrice, &basisKind, &l.Basis.Amount, &mode,
			&l.Discount, &l.CustomPrice, &l.Quantity, &l.GSTRate, &l.IsDetailed)
		l.Basis.Kind = pricing.BasisKind(basisKind)
		l.Mode = pricing.Mode(mode)
		return l, err
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) List(ctx context.Context, req ListOrdersRequest) ([]OrderWithDetails, int, error) {
	var conditions []string
	var args []any

	if req.CustomerID != nil {
		args = append(args, *req.CustomerID)
		conditions = append(conditions, fmt.Sprintf("o.customer_id = $%d", len(args)))
	}
	if req.Status != nil {
		args = append(args, string(*req.Status))
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if req.DateFrom != nil {
		args = append(args, *req.DateFrom)
		conditions = append(conditions, fmt.Sprintf("o.order_date >= $%d", len(args)))
	}
	if req.DateTo != nil {
		args = append(args, *req.DateTo)
		conditions = append(conditions, fmt.Sprintf("o.order_date <= $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders o "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, req.Limit, req.Offset)
	query := fmt.Sprintf(`SELECT %s, c.name
		FROM orders o
		JOIN customers c ON o.customer_id = c.id
		%s
		ORDER BY o.order_date DESC, o.id DESC
		LIMIT $%d OFFSET $%d`, orderColumns, whereClause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (OrderWithDetails, error) {
		var d OrderWithDetails
		o, err := scanOrder(row, &d.CustomerName)
		d.Order = o
		return d, err
	})
	return items, total, err
}

func (r *repository) Create(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO orders (doc_number, customer_id, quotation_id, order_date, status, notes,
		tax_rate, subtotal, tax_amount, total_amount, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		o.DocNumber, o.CustomerID, o.QuotationID, o.OrderDate, string(o.Status), o.Notes,
		o.TaxRate, o.Subtotal, o.TaxAmount, o.TotalAmount, o.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, o Order) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET notes = $1, tax_rate = $2, subtotal = $3, tax_amount = $4,
		total_amount = $5, updated_at = NOW()
		WHERE id = $6`,
		o.Notes, o.TaxRate, o.Subtotal, o.TaxAmount, o.TotalAmount, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceLines swaps the whole line snapshot. Callers run it inside WithTx.
func (r *repository) ReplaceLines(ctx context.Context, orderID int64, lines []OrderLine) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`INSERT INTO order_lines (order_id, line_order, product_id, sku, name, description,
			image_url, category, sub_category, brand, mrp, dealer_price, basis_kind, basis_amount, mode, discount,
			custom_price, quantity, gst_rate, is_detailed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
			orderID, l.LineOrder, l.ProductID, l.SKU, l.Name, l.Description,
			l.ImageURL, l.Category, l.SubCategory, l.Brand, l.MRP, l.DealerPrice, string(l.Basis.Kind), l.Basis.Amount,
			string(l.Mode), l.Discount, l.CustomPrice, l.Quantity, l.GSTRate, l.IsDetailed)
	}
	if batch.Len() == 0 {
		return nil
	}
	return r.db.SendBatch(ctx, batch).Close()
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status OrderStatus, actorID int64, reason string) error {
	var tagErr error
	var affected int64
	switch status {
	case OrderStatusApproved:
		tag, err := r.db.Exec(ctx, `UPDATE orders SET status = $1, approved_by = $2, approved_at = NOW(), updated_at = NOW()
			WHERE id = $3`, string(status), actorID, id)
		affected, tagErr = tag.RowsAffected(), err
	case OrderStatusCancelled:
		tag, err := r.db.Exec(ctx, `UPDATE orders SET status = $1, cancelled_reason = $2, updated_at = NOW()
			WHERE id = $3`, string(status), reason, id)
		affected, tagErr = tag.RowsAffected(), err
	default:
		tag, err := r.db.Exec(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
		affected, tagErr = tag.RowsAffected(), err
	}
	if tagErr != nil {
		return tagErr
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	// SO-{YY}{MM}-{SEQ}
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "SO", date.Format("200601")).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SO-%s-%04d", date.Format("0601"), seq), nil
}
