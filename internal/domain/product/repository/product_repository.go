package repository

import (
	"secondhand_market/internal/domain/product/model"

	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	GetByID(id string) (*model.Product, error)
	GetList(filter model.Filter, offset, limit int) ([]model.Product, int64, error)
	Update(product *model.Product) error
	// SetStatus 条件更新状态，from 不匹配时返回 0 行
	SetStatus(id, from, to string) (bool, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepository) GetByID(id string) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetList(filter model.Filter, offset, limit int) ([]model.Product, int64, error) {
	query := r.db.Model(&model.Product{}).Where("status = ?", model.StatusAvailable)

	if filter.Keyword != "" {
		query = query.Where("title ILIKE ?", "%"+filter.Keyword+"%")
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MinPrice > 0 {
		query = query.Where("selling_price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		query = query.Where("selling_price <= ?", filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&products).Error
	return products, total, err
}

func (r *productRepository) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

// SetStatus 乐观更新：WHERE status = from 防止并发下重复变更
func (r *productRepository) SetStatus(id, from, to string) (bool, error) {
	result := r.db.Model(&model.Product{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumn("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
