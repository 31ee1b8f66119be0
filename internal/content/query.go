package content

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Query 是列表接口的查询参数。
type Query struct {
	Tag      string `form:"tag"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

func (q Query) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Page, validation.Min(0)),
		validation.Field(&q.PageSize, validation.Min(0), validation.Max(MaxPageSize)),
		validation.Field(&q.Tag, validation.Length(0, 32)),
	)
}

// Page 是分页结果。
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// Paginate 在内存中分页，page 从 1 开始，超出范围返回空列表。
func Paginate[T any](items []T, page, size int) Page[T] {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	out := Page[T]{Items: []T{}, Page: page, PageSize: size, Total: len(items)}
	start := (page - 1) * size
	if start >= len(items) {
		return out
	}
	end := min(start+size, len(items))
	out.Items = items[start:end]
	return out
}

// Filter 按标签过滤，空标签不过滤。
func Filter(entries []Entry, tag string) []Entry {
	if tag == "" {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.HasTag(tag) {
			out = append(out, e)
		}
	}
	return out
}
