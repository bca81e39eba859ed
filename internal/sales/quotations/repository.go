package quotations

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

var ErrNotFound = fmt.Errorf("quotation %w", httpx.ErrNotFound)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]QuotationWithDetails, int, error)
	Create(ctx context.Context, q Quotation) (int64, error)
	Update(ctx context.Context, id int64, q Quotation) error
	ReplaceLines(ctx context.Context, quotationID int64, lines []QuotationLine) error
	UpdateStatus(ctx context.Context, id int64, status QuotationStatus) error
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

const quotationColumns = `q.id, q.doc_number, q.customer_id, q.contact_id, q.quote_date, q.valid_until, q.status,
	q.notes, q.terms, q.comments, q.tax_rate, q.show_total, q.discount_amount,
	q.subtotal, q.tax_amount, q.total_amount, q.created_by, q.created_at, q.updated_at`

func scanQuotation(row pgx.Row, extra ...any) (Quotation, error) {
	var q Quotation
	var status string
	dest := []any{&q.ID, &q.DocNumber, &q.CustomerID, &q.ContactID, &q.QuoteDate, &q.ValidUntil, &status,
		&q.Notes, &q.Terms, &q.Comments, &q.TaxRate, &q.ShowTotal, &q.DiscountAmount,
		&q.Subtotal, &q.TaxAmount, &q.TotalAmount, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Quotation{}, err
	}
	q.Status = QuotationStatus(status)
	return q, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, err := scanQuotation(r.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations q WHERE q.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, quotation_id, line_order, product_id, sku, name, description, image_url,
		category, sub_category, brand, mrp, dealer_price, basis_kind, basis_amount, mode, discount, custom_price,
		quantity, gst_rate, is_detailed
		FROM quotation_lines WHERE quotation_id = $1 ORDER BY line_order, id`, id)
	if err != nil {
		return nil, err
	}
	q.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (QuotationLine, error) {
		var l QuotationLine
		var basisKind, mode string
		err := row.Scan(&l.ID, &l.QuotationID, &l.LineOrder, &l.ProductID, &l.SKU, &l.Name, &l.Description, &l.ImageURL,
			&l.Category, &l.SubCategory, &l.Brand, &l.MRP, &l.DealerPrice, &basisKind, &l.Basis.Amount, &mode,
			&l.Discount, &l.CustomPrice, &l.Quantity, &l.GSTRate, &l.IsDetailed)
		l.Basis.Kind = pricing.BasisKind(basisKind)
		l.Mode = pricing.Mode(mode)
		return l, err
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]QuotationWithDetails, int, error) {
	var conditions []string
	var args []any

	if req.CustomerID != nil {
		args = append(args, *req.CustomerID)
		conditions = append(conditions, fmt.Sprintf("q.customer_id = $%d", len(args)))
	}
	if req.Status != nil {
		args = append(args, string(*req.Status))
		conditions = append(conditions, fmt.Sprintf("q.status = $%d", len(args)))
	}
	if req.DateFrom != nil {
		args = append(args, *req.DateFrom)
		conditions = append(conditions, fmt.Sprintf("q.quote_date >= $%d", len(args)))
	}
	if req.DateTo != nil {
		args = append(args, *req.DateTo)
		conditions = append(conditions, fmt.Sprintf("q.quote_date <= $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM quotations q "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, req.Limit, req.Offset)
	query := fmt.Sprintf(`SELECT %s, c.name
		FROM quotations q
		JOIN customers c ON q.customer_id = c.id
		%s
		ORDER BY q.quote_date DESC, q.id DESC
		LIMIT $%d OFFSET $%d`, quotationColumns, whereClause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (QuotationWithDetails, error) {
		var d QuotationWithDetails
		q, err := scanQuotation(row, &d.CustomerName)
		d.Quotation = q
		return d, err
	})
	return items, total, err
}

func (r *repository) Create(ctx context.Context, q Quotation) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO quotations (doc_number, customer_id, contact_id, quote_date, valid_until, status,
		notes, terms, comments, tax_rate, show_total, discount_amount, subtotal, tax_amount, total_amount, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16) RETURNING id`,
		q.DocNumber, q.CustomerID, q.ContactID, q.QuoteDate, q.ValidUntil, string(q.Status),
		q.Notes, q.Terms, q.Comments, q.TaxRate, q.ShowTotal, q.DiscountAmount,
		q.Subtotal, q.TaxAmount, q.TotalAmount, q.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, q Quotation) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotations SET customer_id = $1, contact_id = $2, quote_date = $3, valid_until = $4,
		notes = $5, terms = $6, comments = $7, tax_rate = $8, show_total = $9, discount_amount = $10,
		subtotal = $11, tax_amount = $12, total_amount = $13, updated_at = NOW()
		WHERE id = $14`,
		q.CustomerID, q.ContactID, q.QuoteDate, q.ValidUntil, q.Notes, q.Terms, q.Comments, q.TaxRate, q.ShowTotal,
		q.DiscountAmount, q.Subtotal, q.TaxAmount, q.TotalAmount, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceLines swaps the whole line snapshot. Callers run it inside WithTx.
func (r *repository) ReplaceLines(ctx context.Context, quotationID int64, lines []QuotationLine) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM quotation_lines WHERE quotation_id = $1`, quotationID); err != nil {
		return err
	}
	for _, l := range lines {
		_, err := r.db.Exec(ctx, `INSERT INTO quotation_lines (quotation_id, line_order, product_id, sku, name, description,
			image_url, category, sub_category, brand, mrp, dealer_price, basis_kind, basis_amount, mode, discount,
			custom_price, quantity, gst_rate, is_detailed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
			quotationID, l.LineOrder, l.ProductID, l.SKU, l.Name, l.Description,
			l.ImageURL, l.Category, l.SubCategory, l.Brand, l.MRP, l.DealerPrice, string(l.Basis.Kind), l.Basis.Amount,
			string(l.Mode), l.Discount, l.CustomPrice, l.Quantity, l.GSTRate, l.IsDetailed)
		if err != nil {
			return fmt.Errorf("insert quotation line %d: %w", l.LineOrder, err)
		}
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status QuotationStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotations SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	// QT-{YY}{MM}-{SEQ}
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "QT", date.Format("200601")).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("QT-%s-%04d", date.Format("0601"), seq), nil
}
