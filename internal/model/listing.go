package model

import (
	"Vitrin/internal/editor"
	"time"
)

// Listing 房源或设计作品
// Media 保存对象 key，顺序即展示顺序，第一个为封面
type Listing struct {
	ID          uint64                 `gorm:"primaryKey" json:"id"`
	Kind        string                 `gorm:"type:varchar(16);not null;index:idx_kind_category" json:"kind"`
	Category    string                 `gorm:"type:varchar(64);not null;index:idx_kind_category" json:"category"`
	Title       string                 `gorm:"type:varchar(255);not null" json:"title"`
	Location    string                 `gorm:"type:varchar(255);not null;index:idx_location" json:"location"`
	Area        float64                `gorm:"not null;default:0" json:"area"`
	Price       float64                `gorm:"not null;default:0;index:idx_price" json:"price"`
	Year        int                    `gorm:"not null;default:0" json:"year"`
	Description string                 `gorm:"type:text" json:"description"`
	Media       []string               `gorm:"type:json;serializer:json" json:"media"`
	Specs       editor.AttributeRecord `gorm:"type:json;serializer:json" json:"specs"`
	Featured    bool                   `gorm:"type:tinyint(1);not null;default:0" json:"featured"`
	Published   bool                   `gorm:"type:tinyint(1);not null;default:0;index:idx_published" json:"published"`
	IsDeleted   bool                   `gorm:"type:tinyint(1);not null;default:0" json:"is_deleted"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// YearOrPrice 房产返回售价，设计作品返回完成年份
func (l *Listing) YearOrPrice() float64 {
	if editor.ListingKind(l.Kind) == editor.KindProject {
		return float64(l.Year)
	}
	return l.Price
}

// SetYearOrPrice 按类型写入售价或年份
func (l *Listing) SetYearOrPrice(v float64) {
	if editor.ListingKind(l.Kind) == editor.KindProject {
		l.Year = int(v)
		l.Price = 0
		return
	}
	l.Price = v
	l.Year = 0
}

// ToRecord 转为编辑器使用的记录
func (l *Listing) ToRecord() *editor.Record {
	media := make([]string, len(l.Media))
	copy(media, l.Media)
	return &editor.Record{
		ID:       l.ID,
		Category: editor.Category(l.Category),
		Fields: editor.Fields{
			Title:       l.Title,
			Location:    l.Location,
			Area:        l.Area,
			YearOrPrice: l.YearOrPrice(),
			Description: l.Description,
			Featured:    l.Featured,
			Published:   l.Published,
		},
		Media: media,
		Specs: l.Specs,
	}
}

// ListingFromRequest 由提交请求构造待保存的模型
func ListingFromRequest(req *editor.PersistRequest) *Listing {
	l := &Listing{
		ID:          req.ListingID,
		Kind:        string(req.Kind),
		Category:    string(req.Category),
		Title:       req.Fields.Title,
		Location:    req.Fields.Location,
		Area:        req.Fields.Area,
		Description: req.Fields.Description,
		Media:       req.Media,
		Specs:       req.Specs,
		Featured:    req.Fields.Featured,
		Published:   req.Fields.Published,
	}
	l.SetYearOrPrice(req.Fields.YearOrPrice)
	return l
}
