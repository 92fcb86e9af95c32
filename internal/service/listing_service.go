package service

import (
	"Vitrin/internal/api/dto"
	"Vitrin/internal/editor"
	"Vitrin/internal/model"
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/es"
	"Vitrin/internal/pkg/redis"
	"Vitrin/internal/pkg/util"
	"Vitrin/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

const listingDetailTTL = 10 * time.Minute

// ListingStore 草稿提交时读写房源
type ListingStore interface {
	LoadRecord(ctx context.Context, id uint64) (*editor.Record, error)
	SaveListing(ctx context.Context, req *editor.PersistRequest) (uint64, error)
}

type ListingService interface {
	ListingStore
	Categories() []*dto.CategoryDTO
	ListListings(ctx context.Context, q *dto.ListingQueryDTO, includeUnpublished bool) (*dto.ListingPageDTO, error)
	SearchListings(ctx context.Context, q *dto.ListingSearchDTO) (*dto.ListingPageDTO, error)
	GetListingDetail(ctx context.Context, id uint64) (*dto.ListingDetailDTO, error)
	GetPublishedListing(ctx context.Context, id uint64) (*model.Listing, error)
	DeleteListing(ctx context.Context, id uint64) error
}

type listingServiceImpl struct {
	listingDBRepo repository.ListingRepo
	listingESRepo es.ListingRepo
	storage       MediaStorage
	categories    []*dto.CategoryDTO
}

func NewListingService(listingDBRepo repository.ListingRepo, listingESRepo es.ListingRepo, storage MediaStorage) ListingService {
	return &listingServiceImpl{
		listingDBRepo: listingDBRepo,
		listingESRepo: listingESRepo,
		storage:       storage,
		categories:    buildCategories(),
	}
}

func buildCategories() []*dto.CategoryDTO {
	out := make([]*dto.CategoryDTO, 0, len(editor.Categories()))
	for _, c := range editor.Categories() {
		kind, _ := editor.KindOf(c)
		out = append(out, &dto.CategoryDTO{
			Category:   string(c),
			Kind:       string(kind),
			Attributes: toAttributeDTOs(editor.AttributesFor(c)),
		})
	}
	return out
}

func toAttributeDTOs(entries []editor.SchemaEntry) []dto.AttributeDTO {
	out := make([]dto.AttributeDTO, 0, len(entries))
	for _, e := range entries {
		item := dto.AttributeDTO{
			Key:      e.Key,
			Label:    e.Label,
			Type:     string(e.Type),
			Unit:     e.Unit,
			Required: e.Required,
		}
		for _, c := range e.Choices {
			item.Choices = append(item.Choices, dto.ChoiceDTO{Value: c.Value, Label: c.Label})
		}
		out = append(out, item)
	}
	return out
}

// Categories 分类及其属性定义
func (s *listingServiceImpl) Categories() []*dto.CategoryDTO {
	return s.categories
}

// ListListings 筛选分页，后台列表包含未发布的房源
func (s *listingServiceImpl) ListListings(ctx context.Context, q *dto.ListingQueryDTO, includeUnpublished bool) (*dto.ListingPageDTO, error) {
	if err := util.ValidateDTO(q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParamInvalid, err)
	}

	var filter repository.ListingFilter
	if err := copier.Copy(&filter, q); err != nil {
		return nil, err
	}
	filter.IncludeUnpublished = includeUnpublished

	page, err := s.listingDBRepo.ListListings(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ListingCardDTO, 0, len(page.Items))
	for _, l := range page.Items {
		items = append(items, s.toCard(l))
	}
	return &dto.ListingPageDTO{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		HasMore:  page.HasMore,
	}, nil
}

// SearchListings 关键词搜索，只覆盖已发布的房源
func (s *listingServiceImpl) SearchListings(ctx context.Context, q *dto.ListingSearchDTO) (*dto.ListingPageDTO, error) {
	if err := util.ValidateDTO(q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParamInvalid, err)
	}

	filter := repository.ListingFilter{Page: q.Page, PageSize: q.PageSize}
	filter.Normalize()

	docs, total, err := s.listingESRepo.SearchListings(ctx, es.ListingSearch{
		Keyword:  q.Keyword,
		Kind:     q.Kind,
		Category: q.Category,
		From:     filter.Offset(),
		Size:     filter.PageSize,
	})
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ListingCardDTO, 0, len(docs))
	for _, doc := range docs {
		card := &dto.ListingCardDTO{}
		_ = copier.Copy(card, doc)
		card.Cover = s.storage.PublicURL(doc.Cover)
		card.Published = true
		items = append(items, card)
	}
	hasMore := int64(filter.Offset()+len(items)) < total && filter.Offset()+len(items) < es.MaxSearchDepth
	return &dto.ListingPageDTO{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		HasMore:  hasMore,
	}, nil
}

// GetListingDetail 详情页，结果缓存 10 分钟
func (s *listingServiceImpl) GetListingDetail(ctx context.Context, id uint64) (*dto.ListingDetailDTO, error) {
	key := consts.ListingDetailKey + strconv.FormatUint(id, 10)
	if cached, err := redis.GetValue(ctx, key); err == nil && cached != "" {
		var detail dto.ListingDetailDTO
		if err = json.Unmarshal([]byte(cached), &detail); err == nil {
			return &detail, nil
		}
		log.WarnContext(ctx, "invalid listing detail cache", "listing_id", id, "err", err)
	}

	listing, err := s.GetPublishedListing(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := s.toDetail(listing)

	if data, err := json.Marshal(detail); err == nil {
		if err = redis.SetWithExpiration(ctx, key, string(data), listingDetailTTL); err != nil {
			log.WarnContext(ctx, "cache listing detail failed", "listing_id", id, "err", err)
		}
	}
	return detail, nil
}

// GetPublishedListing 公开可见的房源，未发布视为不存在
func (s *listingServiceImpl) GetPublishedListing(ctx context.Context, id uint64) (*model.Listing, error) {
	listing, err := s.getListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if !listing.Published {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

func (s *listingServiceImpl) getListing(ctx context.Context, id uint64) (*model.Listing, error) {
	listing, err := s.listingDBRepo.GetListing(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// LoadRecord 读取已有房源供编辑
func (s *listingServiceImpl) LoadRecord(ctx context.Context, id uint64) (*editor.Record, error) {
	listing, err := s.getListing(ctx, id)
	if err != nil {
		return nil, err
	}
	return listing.ToRecord(), nil
}

// SaveListing 新建或整体覆盖，不再引用的旧媒体异步删除
func (s *listingServiceImpl) SaveListing(ctx context.Context, req *editor.PersistRequest) (uint64, error) {
	listing := model.ListingFromRequest(req)
	if req.ListingID == 0 {
		if err := s.listingDBRepo.CreateListing(ctx, listing); err != nil {
			return 0, err
		}
		log.InfoContext(ctx, "listing created", "listing_id", listing.ID, "category", listing.Category)
		return listing.ID, nil
	}

	old, err := s.getListing(ctx, req.ListingID)
	if err != nil {
		return 0, err
	}
	if err = s.listingDBRepo.UpdateListing(ctx, listing); err != nil {
		return 0, err
	}
	s.invalidate(ctx, listing.ID)
	s.removeMediaAsync(orphanedMedia(old.Media, listing.Media))
	log.InfoContext(ctx, "listing updated", "listing_id", listing.ID, "category", listing.Category)
	return listing.ID, nil
}

// DeleteListing 软删除，媒体文件异步清理
func (s *listingServiceImpl) DeleteListing(ctx context.Context, id uint64) error {
	listing, err := s.getListing(ctx, id)
	if err != nil {
		return err
	}
	if err = s.listingDBRepo.DeleteListing(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	s.invalidate(ctx, id)
	s.removeMediaAsync(listing.Media)
	return nil
}

func (s *listingServiceImpl) invalidate(ctx context.Context, id uint64) {
	if err := redis.DeleteKey(ctx, consts.ListingDetailKey+strconv.FormatUint(id, 10)); err != nil {
		log.WarnContext(ctx, "invalidate listing detail failed", "listing_id", id, "err", err)
	}
}

func (s *listingServiceImpl) removeMediaAsync(keys []string) {
	if len(keys) == 0 {
		return
	}
	go func() {
		ctx := context.Background()
		for _, k := range keys {
			if err := s.storage.DeleteMain(ctx, k); err != nil {
				log.Warn("delete listing media failed", "key", k, "err", err)
			}
		}
	}()
}

// orphanedMedia 旧列表中不再出现在新列表里的对象
func orphanedMedia(before, after []string) []string {
	keep := make(map[string]struct{}, len(after))
	for _, k := range after {
		keep[k] = struct{}{}
	}
	var out []string
	for _, k := range before {
		if _, ok := keep[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

func (s *listingServiceImpl) toCard(l *model.Listing) *dto.ListingCardDTO {
	card := &dto.ListingCardDTO{}
	_ = copier.Copy(card, l)
	if len(l.Media) > 0 {
		card.Cover = s.storage.PublicURL(l.Media[0])
	}
	return card
}

func (s *listingServiceImpl) toDetail(l *model.Listing) *dto.ListingDetailDTO {
	detail := &dto.ListingDetailDTO{
		ListingCardDTO: *s.toCard(l),
		Description:    l.Description,
		UpdatedAt:      l.UpdatedAt,
		Gallery:        make([]dto.MediaDTO, 0, len(l.Media)),
		Specs:          SpecRows(editor.Category(l.Category), l.Specs),
	}
	for _, k := range l.Media {
		detail.Gallery = append(detail.Gallery, dto.MediaDTO{
			URL:  s.storage.PublicURL(k),
			Kind: string(editor.KindFromName(k)),
		})
	}
	return detail
}

// SpecRows 按分类定义的顺序格式化规格，空值跳过
func SpecRows(category editor.Category, specs editor.AttributeRecord) []dto.SpecRowDTO {
	rows := make([]dto.SpecRowDTO, 0, len(specs))
	if len(specs) == 0 {
		return rows
	}
	for _, entry := range editor.AttributesFor(category) {
		raw, ok := specs[entry.Key]
		if !ok {
			continue
		}
		if value, ok := editor.FormatValue(entry.Key, raw); ok {
			rows = append(rows, dto.SpecRowDTO{Key: entry.Key, Label: entry.Label, Value: value})
		}
	}
	return rows
}
