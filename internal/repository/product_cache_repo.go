package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"printify_dev_v1_202608/internal/model"
)

// ==================== 仓储接口 ====================

// ProductCacheRepository Printify 商品缓存仓储接口
type ProductCacheRepository interface {
	List(ctx context.Context, publishedOnly bool) ([]model.ProductCache, error)
	GetByPrintifyID(ctx context.Context, printifyID string) (*model.ProductCache, error)
	BatchUpsert(ctx context.Context, products []model.ProductCache) error
	DeleteMissing(ctx context.Context, keepIDs []string) error
	Count(ctx context.Context) (int64, error)
}

// ==================== 仓储实现 ====================

type productCacheRepo struct {
	db *gorm.DB
}

// NewProductCacheRepository 创建商品缓存仓储
func NewProductCacheRepository(db *gorm.DB) ProductCacheRepository {
	return &productCacheRepo{db: db}
}

func (r *productCacheRepo) List(ctx context.Context, publishedOnly bool) ([]model.ProductCache, error) {
	query := r.db.WithContext(ctx).Order("remote_updated_at DESC")
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	var products []model.ProductCache
	err := query.Find(&products).Error
	return products, err
}

func (r *productCacheRepo) GetByPrintifyID(ctx context.Context, printifyID string) (*model.ProductCache, error) {
	var product model.ProductCache
	if err := r.db.WithContext(ctx).Where("printify_id = ?", printifyID).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// BatchUpsert 按 printify_id 冲突覆盖，刷新任务整批写入
func (r *productCacheRepo) BatchUpsert(ctx context.Context, products []model.ProductCache) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "printify_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "primary_image", "published", "shopify_url",
			"tags", "remote_created_at", "remote_updated_at", "synced_at", "updated_at",
		}),
	}).Create(&products).Error
}

// DeleteMissing 删掉远端已不存在的缓存条目
func (r *productCacheRepo) DeleteMissing(ctx context.Context, keepIDs []string) error {
	if len(keepIDs) == 0 {
		return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.ProductCache{}).Error
	}
	return r.db.WithContext(ctx).Where("printify_id NOT IN ?", keepIDs).Delete(&model.ProductCache{}).Error
}

func (r *productCacheRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ProductCache{}).Count(&count).Error
	return count, err
}
