package es

import "time"

// ListingES 写入 ES 的房源文档，只索引已发布的数据
type ListingES struct {
	ID          uint64         `json:"id"`
	Kind        string         `json:"kind"`
	Category    string         `json:"category"`
	Title       string         `json:"title"`
	Location    string         `json:"location"`
	Description string         `json:"description"`
	Area        float64        `json:"area"`
	Price       float64        `json:"price"`
	Year        int            `json:"year"`
	Cover       string         `json:"cover"`
	Featured    bool           `json:"featured"`
	Specs       map[string]any `json:"specs,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ListingSearch 搜索条件
type ListingSearch struct {
	Keyword  string
	Kind     string
	Category string
	From     int
	Size     int
}
