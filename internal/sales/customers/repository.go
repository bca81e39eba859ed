package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gearhub/gearhub/internal/platform/db"
	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/pricing"
)

var (
	ErrNotFound      = fmt.Errorf("customer %w", httpx.ErrNotFound)
	ErrAlreadyExists = fmt.Errorf("customer %w", httpx.ErrDuplicate)
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	ListTypes(ctx context.Context) ([]CustomerType, error)
	GetType(ctx context.Context, id int64) (*CustomerType, error)
	CreateType(ctx context.Context, t CustomerType) (int64, error)
	UpdateType(ctx context.Context, id int64, t CustomerType) error

	Get(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Create(ctx context.Context, c Customer) (int64, error)
	Update(ctx context.Context, id int64, c Customer) error
	Delete(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status Status) error
	ReplaceContacts(ctx context.Context, customerID int64, contacts []Contact) error
	CreatePortalUser(ctx context.Context, u PortalUser) (int64, error)
	GenerateCode(ctx context.Context) (string, error)
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

func (r *repository) ListTypes(ctx context.Context) ([]CustomerType, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, base_price_type, percentage, created_at, updated_at FROM customer_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CustomerType, error) {
		return scanType(row)
	})
}

func (r *repository) GetType(ctx context.Context, id int64) (*CustomerType, error) {
	t, err := scanType(r.db.QueryRow(ctx, `SELECT id, name, base_price_type, percentage, created_at, updated_at FROM customer_types WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, fmt.Errorf("customer type %d: %w", id, httpx.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanType(row pgx.Row) (CustomerType, error) {
	var t CustomerType
	var base string
	err := row.Scan(&t.ID, &t.Name, &base, &t.Percentage, &t.CreatedAt, &t.UpdatedAt)
	t.BasePriceType = pricing.BaseType(base)
	return t, err
}

func (r *repository) CreateType(ctx context.Context, t CustomerType) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO customer_types (name, base_price_type, percentage) VALUES ($1, $2, $3) RETURNING id`,
		t.Name, string(t.BasePriceType), t.Percentage).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("customer type %q: %w", t.Name, httpx.ErrDuplicate)
	}
	return id, err
}

func (r *repository) UpdateType(ctx context.Context, id int64, t CustomerType) error {
	tag, err := r.db.Exec(ctx, `UPDATE customer_types SET name = $1, base_price_type = $2, percentage = $3, updated_at = NOW() WHERE id = $4`,
		t.Name, string(t.BasePriceType), t.Percentage, id)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("customer type %q: %w", t.Name, httpx.ErrDuplicate)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer type %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

const customerSelect = `SELECT c.id, c.code, c.name, c.email, c.phone, c.gst_number, c.address, c.customer_type_id,
	c.base_price_type, c.percentage, c.status, c.created_at, c.updated_at,
	ct.name, ct.base_price_type, ct.percentage
	FROM customers c
	LEFT JOIN customer_types ct ON ct.id = c.customer_type_id`

func scanCustomer(row pgx.Row) (Customer, error) {
	var (
		c        Customer
		ownBase  *string
		ownPct   decimal.NullDecimal
		status   string
		typeName *string
		typeBase *string
		typePct  decimal.NullDecimal
	)
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.GSTNumber, &c.Address, &c.CustomerTypeID,
		&ownBase, &ownPct, &status, &c.CreatedAt, &c.UpdatedAt,
		&typeName, &typeBase, &typePct)
	if err != nil {
		return Customer{}, err
	}
	c.Status = Status(status)
	if ownBase != nil {
		base := pricing.BaseType(*ownBase)
		c.BasePriceType = &base
	}
	if ownPct.Valid {
		pct := ownPct.Decimal
		c.Percentage = &pct
	}
	if c.CustomerTypeID != nil && typeName != nil && typeBase != nil {
		c.Type = &CustomerType{
			ID:            *c.CustomerTypeID,
			Name:          *typeName,
			BasePriceType: pricing.BaseType(*typeBase),
			Percentage:    typePct.Decimal,
		}
	}
	return c, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, customerSelect+` WHERE c.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, customer_id, name, email, phone, is_primary FROM customer_contacts WHERE customer_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	c.Contacts, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Contact, error) {
		var ct Contact
		err := row.Scan(&ct.ID, &ct.CustomerID, &ct.Name, &ct.Email, &ct.Phone, &ct.IsPrimary)
		return ct, err
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	var conds []string
	var args []any
	if req.Status != nil {
		args = append(args, string(*req.Status))
		conds = append(conds, fmt.Sprintf("c.status = $%d", len(args)))
	}
	if s := strings.TrimSpace(req.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(c.name ILIKE $%d OR c.code ILIKE $%d OR c.email ILIKE $%d)", len(args), len(args), len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers c`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := customerSelect + where + ` ORDER BY c.name, c.id`
	if req.Limit > 0 {
		args = append(args, req.Limit, req.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Customer, error) {
		return scanCustomer(row)
	})
	return items, total, err
}

func (r *repository) Create(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO customers (code, name, email, phone, gst_number, address, customer_type_id,
		base_price_type, percentage, status) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		c.Code, c.Name, c.Email, c.Phone, c.GSTNumber, c.Address, c.CustomerTypeID,
		baseArg(c.BasePriceType), pctArg(c.Percentage), string(c.Status)).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("%w: code or email in use", ErrAlreadyExists)
	}
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, c Customer) error {
	tag, err := r.db.Exec(ctx, `UPDATE customers SET code = $1, name = $2, email = $3, phone = $4, gst_number = $5, address = $6,
		customer_type_id = $7, base_price_type = $8, percentage = $9, updated_at = NOW() WHERE id = $10`,
		c.Code, c.Name, c.Email, c.Phone, c.GSTNumber, c.Address, c.CustomerTypeID,
		baseArg(c.BasePriceType), pctArg(c.Percentage), id)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: code or email in use", ErrAlreadyExists)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE customers SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceContacts(ctx context.Context, customerID int64, contacts []Contact) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM customer_contacts WHERE customer_id = $1`, customerID); err != nil {
		return err
	}
	for _, ct := range contacts {
		_, err := r.db.Exec(ctx, `INSERT INTO customer_contacts (customer_id, name, email, phone, is_primary) VALUES ($1, $2, $3, $4, $5)`,
			customerID, ct.Name, ct.Email, ct.Phone, ct.IsPrimary)
		if err != nil {
			return fmt.Errorf("insert contact: %w", err)
		}
	}
	return nil
}

func (r *repository) CreatePortalUser(ctx context.Context, u PortalUser) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO users (email, name, password_hash, role, customer_id, is_active) VALUES ($1, $2, $3, 'customer', $4, TRUE) RETURNING id`,
		u.Email, u.Name, u.PasswordHash, u.CustomerID).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("user %q: %w", u.Email, httpx.ErrDuplicate)
	}
	return id, err
}

func (r *repository) GenerateCode(ctx context.Context) (string, error) {
	var next int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM customers`).Scan(&next)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	return fmt.Sprintf("CUST-%05d", next), nil
}

func baseArg(b *pricing.BaseType) *string {
	if b == nil {
		return nil
	}
	s := string(*b)
	return &s
}

func pctArg(p *decimal.Decimal) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *p, Valid: true}
}
