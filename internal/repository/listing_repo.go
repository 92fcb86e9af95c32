package repository

import (
	"Vitrin/internal/model"
	"context"

	"gorm.io/gorm"
)

// ListingPage 分页结果
type ListingPage struct {
	Items    []*model.Listing
	Total    int64
	Page     int
	PageSize int
	HasMore  bool
}

type ListingRepo interface {
	CreateListing(ctx context.Context, listing *model.Listing) error
	UpdateListing(ctx context.Context, listing *model.Listing) error
	GetListing(ctx context.Context, id uint64) (*model.Listing, error)
	DeleteListing(ctx context.Context, id uint64) error
	ListListings(ctx context.Context, filter ListingFilter) (*ListingPage, error)
}

type ListingRepoImpl struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepo {
	return &ListingRepoImpl{db: db}
}

// updatableColumns 覆盖写入的列，零值同样写入
var updatableColumns = []string{
	"kind", "category", "title", "location", "area", "price", "year",
	"description", "media", "specs", "featured", "published",
}

func (s *ListingRepoImpl) CreateListing(ctx context.Context, listing *model.Listing) error {
	return translateError(s.db.WithContext(ctx).Create(listing).Error)
}

// UpdateListing 整体覆盖，后写者胜出
func (s *ListingRepoImpl) UpdateListing(ctx context.Context, listing *model.Listing) error {
	return translateError(s.db.WithContext(ctx).
		Model(&model.Listing{ID: listing.ID}).
		Scopes(notDeleted).
		Select(updatableColumns).
		Updates(listing).Error)
}

func (s *ListingRepoImpl) GetListing(ctx context.Context, id uint64) (*model.Listing, error) {
	var listing model.Listing
	err := s.db.WithContext(ctx).Scopes(notDeleted).First(&listing, id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (s *ListingRepoImpl) DeleteListing(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Model(&model.Listing{}).
		Where("id = ?", id).
		Scopes(notDeleted).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *ListingRepoImpl) ListListings(ctx context.Context, filter ListingFilter) (*ListingPage, error) {
	filter.Normalize()

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Listing{}).Scopes(filter.Scopes()...).Count(&total).Error; err != nil {
		return nil, err
	}

	page := &ListingPage{Page: filter.Page, PageSize: filter.PageSize, Total: total}
	if total == 0 || int64(filter.Offset()) >= total {
		page.Items = []*model.Listing{}
		return page, nil
	}

	err := s.db.WithContext(ctx).
		Scopes(filter.Scopes()...).
		Order(filter.OrderClause()).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&page.Items).Error
	if err != nil {
		return nil, err
	}
	page.HasMore = int64(filter.Offset()+len(page.Items)) < total
	return page, nil
}
