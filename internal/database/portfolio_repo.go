package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrPortfolioNotFound 表示 slug 对应的作品集不存在。
var ErrPortfolioNotFound = errors.New("portfolio not found")

// PortfolioRepository 封装 student_portfolios 表的读写。
type PortfolioRepository struct {
	db *gorm.DB
}

func NewPortfolioRepository(db *gorm.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// FindBySlug 按唯一 slug 读取整行。
func (r *PortfolioRepository) FindBySlug(ctx context.Context, slug string) (*StudentPortfolio, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrPortfolioNotFound
	}

	var row StudentPortfolio
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}
	return &row, nil
}

// List 按更新时间倒序列出全部作品集。
func (r *PortfolioRepository) List(ctx context.Context) ([]StudentPortfolio, error) {
	var rows []StudentPortfolio
	if err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PortfolioRepository) Create(ctx context.Context, row *StudentPortfolio) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// Update 覆盖可编辑字段，不触碰快照状态。
func (r *PortfolioRepository) Update(ctx context.Context, row *StudentPortfolio) error {
	return r.db.WithContext(ctx).Model(row).Select(
		"slug", "student_name", "student_title", "summary_bio", "hero_image_url",
		"avatar_url", "access_password", "theme_config", "content_blocks", "skills",
	).Updates(row).Error
}

// Delete 物理删除，slug 的唯一索引随之释放，可被新作品集复用。
func (r *PortfolioRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&StudentPortfolio{}, id).Error
}

// UpdateSnapshot 记录最近一次快照结果。
func (r *PortfolioRepository) UpdateSnapshot(ctx context.Context, id uint, objectKey, status string) error {
	updates := map[string]any{"snapshot_status": status}
	if objectKey != "" {
		updates["snapshot_key"] = objectKey
	}
	return r.db.WithContext(ctx).Model(&StudentPortfolio{}).Where("id = ?", id).Updates(updates).Error
}

// FindByID 供后台按主键读取。
func (r *PortfolioRepository) FindByID(ctx context.Context, id uint) (*StudentPortfolio, error) {
	var row StudentPortfolio
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}
	return &row, nil
}
