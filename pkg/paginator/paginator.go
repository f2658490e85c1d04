// Package paginator 把有序结果切成固定大小、从 1 开始编号的页。
//
// 越界页码不报错：<=0 落到第一页，超过总页数落到最后一页。
// 空结果集固定返回第 1 页（共 1 页，无数据）。
package paginator

import "strconv"

// DefaultSize 默认每页条数
const DefaultSize = 10

// Meta 分页元信息，供按 offset/limit 查询的列表复用同一套夹取规则
type Meta struct {
	Number      int   `json:"page_number"`
	Size        int   `json:"page_size"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Offset 当前页第一条记录的偏移
func (m Meta) Offset() int { return (m.Number - 1) * m.Size }

// Limit 当前页最多取多少条
func (m Meta) Limit() int { return m.Size }

// Page 一页数据
type Page[T any] struct {
	Items []T `json:"items"`
	Meta
}

// Window 根据总数夹取页码
func Window(total int64, page, size int) Meta {
	if size <= 0 {
		size = DefaultSize
	}
	if total < 0 {
		total = 0
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}
	switch {
	case page < 1:
		page = 1
	case page > pages:
		page = pages
	}
	return Meta{
		Number:      page,
		Size:        size,
		TotalPages:  pages,
		TotalItems:  total,
		HasNext:     page < pages,
		HasPrevious: page > 1,
	}
}

// Paginate 对内存中的有序切片分页，不修改入参
func Paginate[T any](items []T, page, size int) Page[T] {
	m := Window(int64(len(items)), page, size)
	start := m.Offset()
	end := start + m.Size
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return Page[T]{Items: out, Meta: m}
}

// FromWindow 用已查询出的一页数据组装 Page
func FromWindow[T any](m Meta, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Meta: m}
}

// ParsePage 解析 ?page= 参数，非整数一律视为第一页
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return n
}
