package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactMessageModel 房源详情页提交的联系留言
type ContactMessageModel struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ListingID    uint64             `bson:"listing_id" json:"listingId"`
	ListingTitle string             `bson:"listing_title" json:"listingTitle"` // 提交时的标题快照
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone" json:"phone"`
	Message      string             `bson:"message" json:"message"`
	IsRead       bool               `bson:"is_read" json:"isRead"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}
