// Package adapters はpricesフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bullion_backend/internal/feature/prices/domain/entity"
	"bullion_backend/internal/feature/prices/usecase"
)

// PriceModel maps the externally owned price table.
// The table has no primary key and duplicates are allowed.
type PriceModel struct {
	Date     time.Time       `gorm:"type:date;not null;index:data_cat_date,priority:2"`
	Vendor   string          `gorm:"not null"`
	Category string          `gorm:"not null;index:data_cat_date,priority:1"`
	Price    decimal.Decimal `gorm:"type:numeric;not null"`
}

func (PriceModel) TableName() string {
	return "data"
}

func (m PriceModel) toEntity() entity.PriceObservation {
	return entity.PriceObservation{
		Date:     m.Date,
		Vendor:   m.Vendor,
		Category: m.Category,
		Price:    m.Price,
	}
}

type pricePostgres struct {
	db       *gorm.DB
	excluded []string
}

var _ usecase.PriceRepository = (*pricePostgres)(nil)

// NewPriceRepository returns a repository over the price table.
// Categories in excluded are left out of latest-date averages.
func NewPriceRepository(db *gorm.DB, excluded []string) *pricePostgres {
	return &pricePostgres{db: db, excluded: append([]string(nil), excluded...)}
}

func (r *pricePostgres) FindSeries(ctx context.Context, vendor, category string) ([]entity.PriceObservation, error) {
	var rows []PriceModel
	if err := r.db.WithContext(ctx).
		Where("vendor = ? AND category = ?", vendor, category).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.PriceObservation, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEntity())
	}
	return out, nil
}

// averageFilter applies the prefix match and the exclusions. It is used for
// both the MAX(date) subquery and the outer AVG so they see the same rows.
func (r *pricePostgres) averageFilter(q *gorm.DB, prefix string) *gorm.DB {
	q = q.Where(`category LIKE ? ESCAPE '\'`, likePrefix(prefix)).
		Where("vendor <> ?", entity.SpotVendor)
	if len(r.excluded) > 0 {
		q = q.Where("category NOT IN ?", r.excluded)
	}
	return q
}

func (r *pricePostgres) LatestAverage(ctx context.Context, prefix string) (entity.Average, error) {
	db := r.db.WithContext(ctx)
	latest := r.averageFilter(db.Model(&PriceModel{}), prefix).Select("MAX(date)")

	var avg decimal.NullDecimal
	row := r.averageFilter(db.Model(&PriceModel{}), prefix).
		Where("date = (?)", latest).
		Select("AVG(price)").
		Row()
	if err := row.Scan(&avg); err != nil {
		return entity.Average{}, err
	}
	return entity.Average{Value: avg.Decimal, Valid: avg.Valid}, nil
}

func (r *pricePostgres) LatestSpot(ctx context.Context, category string) (entity.PriceObservation, error) {
	var m PriceModel
	err := r.db.WithContext(ctx).
		Where("vendor = ? AND category = ?", entity.SpotVendor, category).
		Order("date DESC").
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.PriceObservation{}, usecase.ErrNotFound
	}
	if err != nil {
		return entity.PriceObservation{}, err
	}
	return m.toEntity(), nil
}

// cheapestSQL picks the newest date whose distinct vendor count equals the
// category's all-time maximum, then the lowest price on that date.
const cheapestSQL = `
SELECT date, vendor, category, price
FROM data
WHERE category = @category
  AND date = (
    SELECT date
    FROM data
    WHERE category = @category
    GROUP BY date
    HAVING COUNT(DISTINCT vendor) = (
      SELECT MAX(vendors)
      FROM (
        SELECT COUNT(DISTINCT vendor) AS vendors
        FROM data
        WHERE category = @category
        GROUP BY date
      ) AS coverage
    )
    ORDER BY date DESC
    LIMIT 1
  )
ORDER BY price ASC
LIMIT 1`

func (r *pricePostgres) CheapestAtFullCoverage(ctx context.Context, category string) (entity.PriceObservation, error) {
	var rows []PriceModel
	if err := r.db.WithContext(ctx).
		Raw(cheapestSQL, map[string]any{"category": category}).
		Scan(&rows).Error; err != nil {
		return entity.PriceObservation{}, err
	}
	if len(rows) == 0 {
		return entity.PriceObservation{}, usecase.ErrNotFound
	}
	return rows[0].toEntity(), nil
}

// likePrefix escapes LIKE metacharacters so the prefix matches literally.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
