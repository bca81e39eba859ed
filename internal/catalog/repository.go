package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gearhub/gearhub/internal/platform/db"
	"github.com/gearhub/gearhub/internal/platform/httpx"
)

// Repository persists catalog data.
type Repository interface {
	ListProducts(ctx context.Context, filters ListFilters) ([]Product, int, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	GetProducts(ctx context.Context, ids []int64) ([]Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (int64, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) error
	DeleteProduct(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name, slug string) (Category, error)
	ListSubCategories(ctx context.Context, categoryID *int64) ([]SubCategory, error)
	CreateSubCategory(ctx context.Context, categoryID int64, name, slug string) (SubCategory, error)
	ListBrands(ctx context.Context) ([]Brand, error)
	CreateBrand(ctx context.Context, name, slug string) (Brand, error)
	ListTags(ctx context.Context) ([]Tag, error)
	CreateTag(ctx context.Context, name, slug string) (Tag, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `p.id, p.sku, p.name, p.description, p.image_url, p.mrp_price, p.dealer_price, p.shop_price,
	p.category_id, COALESCE(c.name, ''), p.sub_category_id, COALESCE(sc.name, ''), p.brand_id, COALESCE(b.name, ''),
	COALESCE((SELECT array_agg(pt.tag_id ORDER BY pt.tag_id) FROM product_tags pt WHERE pt.product_id = p.id), '{}'),
	p.gst_rate, p.is_active, p.created_at, p.updated_at`

const productFrom = ` FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN sub_categories sc ON sc.id = p.sub_category_id
	LEFT JOIN brands b ON b.id = p.brand_id`

type whereClause struct {
	conds []string
	args  []any
}

func (w *whereClause) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func buildProductWhere(f ListFilters) *whereClause {
	w := &whereClause{}
	if f.ActiveOnly {
		w.conds = append(w.conds, "p.is_active")
	}
	if f.CategoryID != nil {
		w.add("p.category_id = ?", *f.CategoryID)
	}
	if f.SubCategoryID != nil {
		w.add("p.sub_category_id = ?", *f.SubCategoryID)
	}
	if f.BrandID != nil {
		w.add("p.brand_id = ?", *f.BrandID)
	}
	if f.TagID != nil {
		w.add("EXISTS (SELECT 1 FROM product_tags pt WHERE pt.product_id = p.id AND pt.tag_id = ?)", *f.TagID)
	}
	if f.MinPrice != nil {
		w.add("p.mrp_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("p.mrp_price <= ?", *f.MaxPrice)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		w.add("(p.name ILIKE ? OR p.sku ILIKE ?)", "%"+s+"%")
	}
	return w
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.ImageURL, &p.MRPPrice, &p.DealerPrice, &p.ShopPrice,
		&p.CategoryID, &p.CategoryName, &p.SubCategoryID, &p.SubCategoryName, &p.BrandID, &p.BrandName,
		&p.TagIDs, &p.GSTRate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) ListProducts(ctx context.Context, f ListFilters) ([]Product, int, error) {
	where := buildProductWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+productFrom+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + productFrom + where.String() + ` ORDER BY p.name, p.id`
	args := where.args
	if f.Limit > 0 {
		args = append(args, f.Limit, f.offset())
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+productFrom+` WHERE p.id = $1`, id))
	if db.IsNoRows(err) {
		return Product{}, fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
	}
	return p, err
}

func (r *repository) GetProducts(ctx context.Context, ids []int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+productFrom+` WHERE p.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) CreateProduct(ctx context.Context, in ProductInput) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO products (sku, name, description, image_url, mrp_price, dealer_price, shop_price,
			category_id, sub_category_id, brand_id, gst_rate, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
			in.SKU, in.Name, in.Description, in.ImageURL, in.MRPPrice, in.DealerPrice, in.ShopPrice,
			in.CategoryID, in.SubCategoryID, in.BrandID, in.GSTRate, isActive(in)).Scan(&id)
		if err != nil {
			return err
		}
		return replaceTags(ctx, tx, id, in.TagIDs)
	})
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("sku %q: %w", in.SKU, httpx.ErrDuplicate)
	}
	return id, err
}

func (r *repository) UpdateProduct(ctx context.Context, id int64, in ProductInput) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE products SET sku = $1, name = $2, description = $3, image_url = $4, mrp_price = $5,
			dealer_price = $6, shop_price = $7, category_id = $8, sub_category_id = $9, brand_id = $10, gst_rate = $11,
			is_active = $12, updated_at = NOW() WHERE id = $13`,
			in.SKU, in.Name, in.Description, in.ImageURL, in.MRPPrice, in.DealerPrice, in.ShopPrice,
			in.CategoryID, in.SubCategoryID, in.BrandID, in.GSTRate, isActive(in), id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
		}
		return replaceTags(ctx, tx, id, in.TagIDs)
	})
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("sku %q: %w", in.SKU, httpx.ErrDuplicate)
	}
	return err
}

func (r *repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func replaceTags(ctx context.Context, q db.DBTX, productID int64, tagIDs []int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM product_tags WHERE product_id = $1`, productID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := q.Exec(ctx, `INSERT INTO product_tags (product_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, productID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func isActive(in ProductInput) bool {
	return in.IsActive == nil || *in.IsActive
}

func (r *repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Category, error) {
		var c Category
		err := row.Scan(&c.ID, &c.Name, &c.Slug)
		return c, err
	})
}

func (r *repository) CreateCategory(ctx context.Context, name, slug string) (Category, error) {
	c := Category{Name: name, Slug: slug}
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id`, name, slug).Scan(&c.ID)
	return c, mapWriteErr(err, "category", name)
}

func (r *repository) ListSubCategories(ctx context.Context, categoryID *int64) ([]SubCategory, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, category_id, name, slug FROM sub_categories
		WHERE $1::bigint IS NULL OR category_id = $1 ORDER BY name`, categoryID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SubCategory, error) {
		var sc SubCategory
		err := row.Scan(&sc.ID, &sc.CategoryID, &sc.Name, &sc.Slug)
		return sc, err
	})
}

func (r *repository) CreateSubCategory(ctx context.Context, categoryID int64, name, slug string) (SubCategory, error) {
	sc := SubCategory{CategoryID: categoryID, Name: name, Slug: slug}
	err := r.pool.QueryRow(ctx, `INSERT INTO sub_categories (category_id, name, slug) VALUES ($1, $2, $3) RETURNING id`,
		categoryID, name, slug).Scan(&sc.ID)
	return sc, mapWriteErr(err, "sub-category", name)
}

func (r *repository) ListBrands(ctx context.Context) ([]Brand, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug FROM brands ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Brand, error) {
		var b Brand
		err := row.Scan(&b.ID, &b.Name, &b.Slug)
		return b, err
	})
}

func (r *repository) CreateBrand(ctx context.Context, name, slug string) (Brand, error) {
	b := Brand{Name: name, Slug: slug}
	err := r.pool.QueryRow(ctx, `INSERT INTO brands (name, slug) VALUES ($1, $2) RETURNING id`, name, slug).Scan(&b.ID)
	return b, mapWriteErr(err, "brand", name)
}

func (r *repository) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Tag, error) {
		var t Tag
		err := row.Scan(&t.ID, &t.Name, &t.Slug)
		return t, err
	})
}

func (r *repository) CreateTag(ctx context.Context, name, slug string) (Tag, error) {
	t := Tag{Name: name, Slug: slug}
	err := r.pool.QueryRow(ctx, `INSERT INTO tags (name, slug) VALUES ($1, $2) RETURNING id`, name, slug).Scan(&t.ID)
	return t, mapWriteErr(err, "tag", name)
}

func mapWriteErr(err error, kind, name string) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%s %q: %w", kind, name, httpx.ErrDuplicate)
	}
	return err
}
