package pagination

import (
	"errors"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrInvalidPagination = errors.New("invalid_pagination")

// Page is offset pagination as accepted by the public and tenant listings.
type Page struct {
	Skip  int `form:"skip" json:"skip"`
	Limit int `form:"limit" json:"limit"`
}

type PageInfo struct {
	Skip    int  `json:"skip"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// Normalize fills the default limit and rejects skip < 0 or limit outside [1, max].
func (p Page) Normalize(defaultLimit, maxLimit int) (Page, error) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if p.Skip < 0 {
		return Page{}, ErrInvalidPagination
	}
	if p.Limit == 0 {
		p.Limit = defaultLimit
	}
	if p.Limit < 1 || p.Limit > maxLimit {
		return Page{}, ErrInvalidPagination
	}
	return p, nil
}

// Apply pushes OFFSET/LIMIT into the statement. One extra row is requested so
// callers can compute HasMore.
func (p Page) Apply(stmt *gorm.DB) *gorm.DB {
	return stmt.Offset(p.Skip).Limit(p.Limit + 1)
}

// Window slices an already ordered in-memory result the same way Apply does.
func Window[T any](items []T, p Page) []T {
	if p.Skip >= len(items) {
		return nil
	}
	end := p.Skip + p.Limit + 1
	if end > len(items) {
		end = len(items)
	}
	return items[p.Skip:end]
}

// Trim drops the look-ahead row and reports whether more rows exist.
func Trim[T any](items []T, p Page) ([]T, PageInfo) {
	info := PageInfo{Skip: p.Skip, Limit: p.Limit}
	if len(items) > p.Limit {
		info.HasMore = true
		items = items[:p.Limit]
	}
	return items, info
}
