package discount

import (
	"context"
	"io"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-cart/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) ListActive(ctx context.Context, discountType domain.DiscountType) ([]domain.Discount, error) {
	const q = `
SELECT id, name, type, percentage, min_purchase_amount, is_active, start_date, end_date, product_ids
FROM discounts
WHERE type = $1 AND is_active = TRUE
ORDER BY created_at, id
`
	rows, err := r.pool.Query(ctx, q, string(discountType))
	if err != nil {
		r.logger.Printf("discount repo: list type=%s error=%v", discountType, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Discount
	for rows.Next() {
		var d domain.Discount
		var typ string
		if err := rows.Scan(&d.ID, &d.Name, &typ, &d.Percentage, &d.MinPurchaseAmount, &d.IsActive, &d.StartDate, &d.EndDate, &d.ProductIDs); err != nil {
			return nil, err
		}
		d.Type = domain.DiscountType(typ)
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("discount repo: list rows type=%s error=%v", discountType, err)
		return nil, err
	}
	r.logger.Printf("discount repo: list type=%s count=%d", discountType, len(result))
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, d domain.Discount) error {
	const q = `
INSERT INTO discounts (id, name, type, percentage, min_purchase_amount, is_active, start_date, end_date, product_ids)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    type = EXCLUDED.type,
    percentage = EXCLUDED.percentage,
    min_purchase_amount = EXCLUDED.min_purchase_amount,
    is_active = EXCLUDED.is_active,
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date,
    product_ids = EXCLUDED.product_ids
`
	productIDs := d.ProductIDs
	if productIDs == nil {
		productIDs = []string{}
	}
	_, err := r.pool.Exec(ctx, q, d.ID, d.Name, string(d.Type), d.Percentage, d.MinPurchaseAmount, d.IsActive, d.StartDate, d.EndDate, productIDs)
	if err != nil {
		r.logger.Printf("discount repo: upsert id=%s error=%v", d.ID, err)
	}
	return err
}
