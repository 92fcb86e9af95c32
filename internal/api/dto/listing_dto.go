package dto

import "time"

// ListingQueryDTO 列表筛选参数
type ListingQueryDTO struct {
	Kind     string   `form:"kind" validate:"omitempty,oneof=property project"`
	Category string   `form:"category" validate:"omitempty,max=64"`
	Location string   `form:"location" validate:"omitempty,max=100"`
	MinPrice *float64 `form:"min_price" validate:"omitempty,min=0"`
	MaxPrice *float64 `form:"max_price" validate:"omitempty,min=0"`
	MinArea  *float64 `form:"min_area" validate:"omitempty,min=0"`
	MaxArea  *float64 `form:"max_area" validate:"omitempty,min=0"`
	MinYear  *int     `form:"min_year" validate:"omitempty,min=0"`
	MaxYear  *int     `form:"max_year" validate:"omitempty,min=0"`
	Featured *bool    `form:"featured"`
	Sort     string   `form:"sort" validate:"omitempty,oneof=newest price_asc price_desc area_desc"`
	Page     int      `form:"page" validate:"min=0"`
	PageSize int      `form:"page_size" validate:"min=0"`
}

// ListingSearchDTO 全文搜索参数
type ListingSearchDTO struct {
	Keyword  string `form:"keyword" validate:"max=100"`
	Kind     string `form:"kind" validate:"omitempty,oneof=property project"`
	Category string `form:"category" validate:"omitempty,max=64"`
	Page     int    `form:"page" validate:"min=0"`
	PageSize int    `form:"page_size" validate:"min=0"`
}

// ListingCardDTO 列表卡片
type ListingCardDTO struct {
	ID        uint64    `json:"id"`
	Kind      string    `json:"kind"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	Area      float64   `json:"area"`
	Price     float64   `json:"price,omitempty"`
	Year      int       `json:"year,omitempty"`
	Cover     string    `json:"cover"`
	Featured  bool      `json:"featured"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
}

type ListingPageDTO struct {
	Items    []*ListingCardDTO `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	HasMore  bool              `json:"has_more"`
}

type MediaDTO struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// SpecRowDTO 详情页的一行规格，Value 已格式化
type SpecRowDTO struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// ListingDetailDTO 详情页，Gallery 第一项为封面
type ListingDetailDTO struct {
	ListingCardDTO
	Description string       `json:"description"`
	Gallery     []MediaDTO   `json:"gallery"`
	Specs       []SpecRowDTO `json:"specs"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type ChoiceDTO struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type AttributeDTO struct {
	Key      string      `json:"key"`
	Label    string      `json:"label"`
	Type     string      `json:"type"`
	Unit     string      `json:"unit,omitempty"`
	Choices  []ChoiceDTO `json:"choices,omitempty"`
	Required bool        `json:"required"`
}

// CategoryDTO 供前端动态生成表单
type CategoryDTO struct {
	Category   string         `json:"category"`
	Kind       string         `json:"kind"`
	Attributes []AttributeDTO `json:"attributes"`
}
