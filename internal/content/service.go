package content

import (
	"context"
	"errors"
	"fmt"

	"kidsfolio/internal/database"
)

// ErrUnknownCategory 表示栏目名不存在。
var ErrUnknownCategory = errors.New("unknown content category")

// Store 是内容表的持久化接口，由 database.ContentRepository 实现。
type Store interface {
	List(ctx context.Context, table string, publishedOnly bool) ([]database.ContentRow, error)
	Get(ctx context.Context, table string, id uint) (*database.ContentRow, error)
	Create(ctx context.Context, table string, row *database.ContentRow) error
	Update(ctx context.Context, table string, row *database.ContentRow) error
	Delete(ctx context.Context, table string, id uint) error
}

// Service 组合栏目注册表与存储。
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListPublished 返回栏目中已发布的条目，按标签过滤后分页。
func (s *Service) ListPublished(ctx context.Context, category string, q Query) (Page[Entry], error) {
	return s.list(ctx, category, q, true)
}

// ListAll 供后台使用，包含未发布条目。
func (s *Service) ListAll(ctx context.Context, category string, q Query) (Page[Entry], error) {
	return s.list(ctx, category, q, false)
}

func (s *Service) list(ctx context.Context, category string, q Query, publishedOnly bool) (Page[Entry], error) {
	c, ok := Lookup(category)
	if !ok {
		return Page[Entry]{}, ErrUnknownCategory
	}
	rows, err := s.store.List(ctx, c.Table, publishedOnly)
	if err != nil {
		return Page[Entry]{}, fmt.Errorf("list %s: %w", c.Slug, err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, FromRow(row))
	}
	return Paginate(Filter(entries, q.Tag), q.Page, q.PageSize), nil
}

func (s *Service) Create(ctx context.Context, category string, d Draft) (Entry, error) {
	c, ok := Lookup(category)
	if !ok {
		return Entry{}, ErrUnknownCategory
	}
	row := d.ToRow()
	if err := s.store.Create(ctx, c.Table, &row); err != nil {
		return Entry{}, fmt.Errorf("create %s entry: %w", c.Slug, err)
	}
	return FromRow(row), nil
}

func (s *Service) Update(ctx context.Context, category string, id uint, d Draft) (Entry, error) {
	c, ok := Lookup(category)
	if !ok {
		return Entry{}, ErrUnknownCategory
	}
	row := d.ToRow()
	row.ID = id
	if err := s.store.Update(ctx, c.Table, &row); err != nil {
		return Entry{}, err
	}
	saved, err := s.store.Get(ctx, c.Table, id)
	if err != nil {
		return Entry{}, err
	}
	return FromRow(*saved), nil
}

func (s *Service) Delete(ctx context.Context, category string, id uint) error {
	c, ok := Lookup(category)
	if !ok {
		return ErrUnknownCategory
	}
	return s.store.Delete(ctx, c.Table, id)
}
