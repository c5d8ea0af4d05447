package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/shelfline/marketsync/internal/models"
)

// ProductRepository handles data access for catalog products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByID returns a single product by id, tenant-scoped.
func (r *ProductRepository) GetByID(tenantID, id int64) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE tenant_id = $1 AND id = $2 LIMIT 1`
	var p models.Product
	if err := r.db.Get(&p, q, tenantID, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetBySKU returns a single product by SKU, tenant-scoped.
func (r *ProductRepository) GetBySKU(tenantID int64, sku string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE tenant_id = $1 AND sku = $2 LIMIT 1`
	var p models.Product
	if err := r.db.Get(&p, q, tenantID, sku); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByPlatformID returns the product whose platform_ids entry for the given
// marketplace equals remoteID. Used as the fallback when an order line item
// carries no SKU.
func (r *ProductRepository) GetByPlatformID(tenantID int64, marketplace, remoteID string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE tenant_id = $1 AND platform_ids ->> $2 = $3 LIMIT 1`
	var p models.Product
	if err := r.db.Get(&p, q, tenantID, marketplace, remoteID); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs returns the products matching ids, tenant-scoped. Missing ids are
// simply absent from the result.
func (r *ProductRepository) GetByIDs(tenantID int64, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(`SELECT * FROM products WHERE tenant_id = ? AND id IN (?) ORDER BY id`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	q = r.db.Rebind(q)
	var products []models.Product
	if err := r.db.Select(&products, q, args...); err != nil {
		return nil, err
	}
	return products, nil
}

// GetListed returns all products of a tenant currently linked to the given
// marketplace (platform_ids contains the key).
func (r *ProductRepository) GetListed(tenantID int64, marketplace string) ([]models.Product, error) {
	const q = `SELECT * FROM products WHERE tenant_id = $1 AND platform_ids ? $2 ORDER BY id`
	var products []models.Product
	if err := r.db.Select(&products, q, tenantID, marketplace); err != nil {
		return nil, err
	}
	return products, nil
}

// Update persists the sync-relevant mutable fields of a product.
func (r *ProductRepository) Update(p *models.Product) error {
	const q = `
        UPDATE products SET
            quantity = $1,
            sold = $2,
            sold_at = $3,
            sold_price = $4,
            sold_platform = $5,
            remote_order_id = $6,
            remote_line_item_id = $7,
            platform_ids = $8,
            exported_to = $9,
            updated_at = NOW()
        WHERE id = $10
        RETURNING updated_at`

	return r.db.QueryRowx(q,
		p.Quantity,
		p.Sold,
		p.SoldAt,
		p.SoldPrice,
		p.SoldPlatform,
		p.RemoteOrderID,
		p.RemoteLineItemID,
		p.PlatformIDs,
		p.ExportedTo,
		p.ID,
	).Scan(&p.UpdatedAt)
}

// CreateSplit inserts a new record copied from an original multi-unit listing
// when part of its quantity sells. The new record carries its own SKU suffix
// so the unique (tenant_id, sku) constraint holds.
func (r *ProductRepository) CreateSplit(p *models.Product) error {
	const q = `
        INSERT INTO products (
            tenant_id, sku, title, description, category_code, condition,
            quantity, price, currency, format, start_price, reserve_price, buy_it_now,
            attributes, photos, platform_ids, exported_to,
            sold, sold_at, sold_price, sold_platform,
            remote_order_id, remote_line_item_id
        ) VALUES (
            $1, $2, $3, $4, $5, $6,
            $7, $8, $9, $10, $11, $12, $13,
            $14, $15, $16, $17,
            $18, $19, $20, $21,
            $22, $23
        )
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowx(q,
		p.TenantID, p.SKU, p.Title, p.Description, p.CategoryCode, p.Condition,
		p.Quantity, p.Price, p.Currency, p.Format, p.StartPrice, p.ReservePrice, p.BuyItNow,
		p.Attributes, p.Photos, p.PlatformIDs, p.ExportedTo,
		p.Sold, p.SoldAt, p.SoldPrice, p.SoldPlatform,
		p.RemoteOrderID, p.RemoteLineItemID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// HasDedupeMarker reports whether any record of the tenant already carries
// the (order id, line item id) pair, including split records created from
// the original listing.
func (r *ProductRepository) HasDedupeMarker(tenantID int64, orderID, lineItemID string) (bool, error) {
	const q = `SELECT COUNT(1) FROM products WHERE tenant_id = $1 AND remote_order_id = $2 AND remote_line_item_id = $3`
	var n int
	if err := r.db.Get(&n, q, tenantID, orderID, lineItemID); err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsNotFound reports whether err is the driver's no-rows sentinel.
func IsNotFound(err error) bool {
	return err == sql.ErrNoRows
}
