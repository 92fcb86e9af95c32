package dto

import "time"

// ContactDTO 详情页联系表单
type ContactDTO struct {
	Name    string `json:"name" binding:"required" validate:"min=1,max=100"`
	Email   string `json:"email" binding:"required" validate:"email,max=255"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
	Message string `json:"message" binding:"required" validate:"min=1,max=2000"`
}

type ContactQueryDTO struct {
	Unread   bool  `form:"unread"`
	Page     int64 `form:"page" validate:"min=0"`
	PageSize int64 `form:"page_size" validate:"min=0,max=100"`
}

type ContactMessageDTO struct {
	ID           string    `json:"id"`
	ListingID    uint64    `json:"listing_id"`
	ListingTitle string    `json:"listing_title"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Message      string    `json:"message"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
}

type ContactPageDTO struct {
	Items  []*ContactMessageDTO `json:"items"`
	Total  int64                `json:"total"`
	Unread int64                `json:"unread"`
}

// ContactEvent 通过 websocket 推送给在线管理员
type ContactEvent struct {
	Type         string    `json:"type"`
	ID           string    `json:"id"`
	ListingID    uint64    `json:"listing_id"`
	ListingTitle string    `json:"listing_title"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}
