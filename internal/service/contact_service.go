package service

import (
	"Vitrin/internal/api/dto"
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/mongo"
	"Vitrin/internal/pkg/redis"
	"Vitrin/internal/pkg/util"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
)

const notifyTimeout = 10 * time.Second

type ContactService interface {
	SubmitContact(ctx context.Context, listingID uint64, req *dto.ContactDTO) (*dto.ContactMessageDTO, error)
	ListContacts(ctx context.Context, q *dto.ContactQueryDTO) (*dto.ContactPageDTO, error)
	MarkRead(ctx context.Context, id string) error
}

type contactServiceImpl struct {
	contactRepo mongo.ContactMessageRepo
	listings    ListingService
	notifier    Notifier
}

func NewContactService(contactRepo mongo.ContactMessageRepo, listings ListingService, notifier Notifier) ContactService {
	return &contactServiceImpl{
		contactRepo: contactRepo,
		listings:    listings,
		notifier:    notifier,
	}
}

// SubmitContact 保存留言，并推送给在线管理员和外部通知，推送失败不影响结果
func (s *contactServiceImpl) SubmitContact(ctx context.Context, listingID uint64, req *dto.ContactDTO) (*dto.ContactMessageDTO, error) {
	if err := util.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParamInvalid, err)
	}
	listing, err := s.listings.GetPublishedListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	msg := &mongo.ContactMessageModel{
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		Message:      strings.TrimSpace(req.Message),
		CreatedAt:    time.Now(),
	}
	if err = s.contactRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	out := toContactDTO(msg)
	log.InfoContext(ctx, "contact message received", "id", out.ID, "listing_id", listingID)

	event, _ := json.Marshal(dto.ContactEvent{
		Type:         "contact",
		ID:           out.ID,
		ListingID:    out.ListingID,
		ListingTitle: out.ListingTitle,
		Name:         out.Name,
		CreatedAt:    out.CreatedAt,
	})
	if err = redis.Publish(ctx, consts.ContactEventChannel, string(event)); err != nil {
		log.WarnContext(ctx, "publish contact event failed", "id", out.ID, "err", err)
	}

	if s.notifier != nil {
		go func(ctx context.Context) {
			ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
			defer cancel()
			if err := s.notifier.NotifyContact(ctx, out); err != nil {
				log.WarnContext(ctx, "contact notification failed", "id", out.ID, "err", err)
			}
		}(context.WithoutCancel(ctx))
	}
	return out, nil
}

func (s *contactServiceImpl) ListContacts(ctx context.Context, q *dto.ContactQueryDTO) (*dto.ContactPageDTO, error) {
	if err := util.ValidateDTO(q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParamInvalid, err)
	}
	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	list, total, err := s.contactRepo.ListMessages(ctx, q.Unread, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	unread, err := s.contactRepo.GetUnreadCount(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ContactMessageDTO, 0, len(list))
	for _, m := range list {
		items = append(items, toContactDTO(m))
	}
	return &dto.ContactPageDTO{Items: items, Total: total, Unread: unread}, nil
}

func (s *contactServiceImpl) MarkRead(ctx context.Context, id string) error {
	err := s.contactRepo.MarkAsRead(ctx, id)
	if errors.Is(err, mongo.ErrMessageNotFound) {
		return ErrContactNotFound
	}
	return err
}

func toContactDTO(m *mongo.ContactMessageModel) *dto.ContactMessageDTO {
	d := &dto.ContactMessageDTO{}
	_ = copier.Copy(d, m)
	d.ID = m.ID.Hex()
	return d
}
