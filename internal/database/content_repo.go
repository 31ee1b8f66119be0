package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrContentNotFound 表示内容条目不存在。
var ErrContentNotFound = errors.New("content item not found")

// ContentRepository 读写各内容栏目表，表名由调用方从栏目注册表中取得。
type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// List 按 sort_order、id 升序列出栏目内容；publishedOnly 为 true 时只返回已发布条目。
func (r *ContentRepository) List(ctx context.Context, table string, publishedOnly bool) ([]ContentRow, error) {
	q := r.db.WithContext(ctx).Table(table).Where("deleted_at IS NULL")
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var rows []ContentRow
	if err := q.Order("sort_order ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ContentRepository) Get(ctx context.Context, table string, id uint) (*ContentRow, error) {
	var row ContentRow
	err := r.db.WithContext(ctx).Table(table).Where("id = ? AND deleted_at IS NULL", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ContentRepository) Create(ctx context.Context, table string, row *ContentRow) error {
	return r.db.WithContext(ctx).Table(table).Create(row).Error
}

// Update 覆盖条目的全部可编辑字段。
func (r *ContentRepository) Update(ctx context.Context, table string, row *ContentRow) error {
	res := r.db.WithContext(ctx).Table(table).Where("id = ? AND deleted_at IS NULL", row.ID).Updates(map[string]any{
		"title":      row.Title,
		"subtitle":   row.Subtitle,
		"body":       row.Body,
		"image_url":  row.ImageURL,
		"link_url":   row.LinkURL,
		"tags":       row.Tags,
		"extra":      row.Extra,
		"sort_order": row.SortOrder,
		"published":  row.Published,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContentNotFound
	}
	return nil
}

// Delete 软删除条目。
func (r *ContentRepository) Delete(ctx context.Context, table string, id uint) error {
	res := r.db.WithContext(ctx).Table(table).Where("id = ?", id).Delete(&ContentRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContentNotFound
	}
	return nil
}
