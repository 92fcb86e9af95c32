package model

import "time"

// Admin 后台账号，角色保存为 JSON 数组
type Admin struct {
	ID        uint64     `gorm:"primaryKey" json:"id"`
	Username  string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`
	Password  string     `gorm:"type:varchar(255);not null" json:"-"`
	Roles     []string   `gorm:"type:json;serializer:json" json:"roles"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Admin) TableName() string {
	return "admins"
}
