package repository

import (
	"Vitrin/internal/pkg/consts"
	"strings"

	"gorm.io/gorm"
)

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortAreaDesc  = "area_desc"
)

var sortClauses = map[string]string{
	SortNewest:    "featured DESC, created_at DESC, id DESC",
	SortPriceAsc:  "price ASC, id DESC",
	SortPriceDesc: "price DESC, id DESC",
	SortAreaDesc:  "area DESC, id DESC",
}

// ListingFilter 列表查询条件，nil 表示不限
type ListingFilter struct {
	Kind               string
	Category           string
	Location           string
	MinPrice           *float64
	MaxPrice           *float64
	MinArea            *float64
	MaxArea            *float64
	MinYear            *int
	MaxYear            *int
	Featured           *bool
	IncludeUnpublished bool
	Sort               string
	Page               int
	PageSize           int
}

// Normalize 补全分页与排序默认值，page_size 上限 48
func (f *ListingFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = consts.DefaultPageSize
	}
	if f.PageSize > consts.MaxPageSize {
		f.PageSize = consts.MaxPageSize
	}
	if _, ok := sortClauses[f.Sort]; !ok {
		f.Sort = SortNewest
	}
}

func (f *ListingFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// OrderClause 排序子句，未知排序回落到最新
func (f *ListingFilter) OrderClause() string {
	if c, ok := sortClauses[f.Sort]; ok {
		return c
	}
	return sortClauses[SortNewest]
}

// Scopes 把条件转为 gorm scope，计数与分页查询共用
func (f *ListingFilter) Scopes() []func(*gorm.DB) *gorm.DB {
	scopes := []func(*gorm.DB) *gorm.DB{notDeleted}
	if !f.IncludeUnpublished {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("published = ?", true) })
	}
	if f.Kind != "" {
		kind := f.Kind
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("kind = ?", kind) })
	}
	if f.Category != "" {
		category := f.Category
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("category = ?", category) })
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		pattern := "%" + escapeLike(loc) + "%"
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("location LIKE ?", pattern) })
	}
	scopes = appendRange(scopes, "price", f.MinPrice, f.MaxPrice)
	scopes = appendRange(scopes, "area", f.MinArea, f.MaxArea)
	scopes = appendRange(scopes, "year", f.MinYear, f.MaxYear)
	if f.Featured != nil {
		featured := *f.Featured
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("featured = ?", featured) })
	}
	return scopes
}

func notDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false)
}

func appendRange[T int | float64](scopes []func(*gorm.DB) *gorm.DB, column string, lo, hi *T) []func(*gorm.DB) *gorm.DB {
	if lo != nil {
		v := *lo
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where(column+" >= ?", v) })
	}
	if hi != nil {
		v := *hi
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where(column+" <= ?", v) })
	}
	return scopes
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
