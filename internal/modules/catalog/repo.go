package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("variant not found")

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) GetVariant(ctx context.Context, id string) (Variant, error) {
	var v Variant
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Variant{}, ErrNotFound
		}
		return Variant{}, err
	}
	return v, nil
}

// VariantsByID resolves a set of variant ids with their product names in
// one round trip. Missing ids are simply absent from the result.
func (r *Repo) VariantsByID(ctx context.Context, ids []string) (map[string]VariantWithProduct, error) {
	if len(ids) == 0 {
		return map[string]VariantWithProduct{}, nil
	}
	var rows []VariantWithProduct
	err := r.db.WithContext(ctx).
		Table("product_variants").
		Select("product_variants.*, products.name AS product_name").
		Joins("JOIN products ON products.id = product_variants.product_id").
		Where("product_variants.id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]VariantWithProduct, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

type VariantWithProduct struct {
	Variant
	ProductName string `gorm:"column:product_name"`
}
