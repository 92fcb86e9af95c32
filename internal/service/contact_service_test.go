package service

import (
	"Vitrin/internal/api/config"
	"Vitrin/internal/api/dto"
	"Vitrin/internal/model"
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/mongo"
	"Vitrin/internal/pkg/redis"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeContactRepo struct {
	mu   sync.Mutex
	msgs []*mongo.ContactMessageModel
}

func (f *fakeContactRepo) CreateMessage(_ context.Context, msg *mongo.ContactMessageModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeContactRepo) ListMessages(_ context.Context, unreadOnly bool, limit, offset int64) ([]*mongo.ContactMessageModel, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*mongo.ContactMessageModel
	for _, m := range f.msgs {
		if !unreadOnly || !m.IsRead {
			out = append(out, m)
		}
	}
	total := int64(len(out))
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return out[offset:end], total, nil
}

func (f *fakeContactRepo) MarkAsRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID.Hex() == id {
			m.IsRead = true
			return nil
		}
	}
	return mongo.ErrMessageNotFound
}

func (f *fakeContactRepo) GetUnreadCount(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.msgs {
		if !m.IsRead {
			n++
		}
	}
	return n, nil
}

// publishedOnly 只实现联系表单用到的方法
type publishedOnly struct {
	ListingService
	listings map[uint64]*model.Listing
}

func (p publishedOnly) GetPublishedListing(_ context.Context, id uint64) (*model.Listing, error) {
	if l, ok := p.listings[id]; ok && l.Published {
		return l, nil
	}
	return nil, ErrListingNotFound
}

func TestSubmitContactStoresPublishesAndNotifies(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	hooked := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		hooked <- string(body)
	}))
	defer srv.Close()

	sub := redis.Subscribe(ctx, consts.ContactEventChannel)
	defer func() { _ = sub.Close() }()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	repo := &fakeContactRepo{}
	listings := publishedOnly{listings: map[uint64]*model.Listing{
		5: {ID: 5, Title: "Yalıkavak Villa", Published: true},
		6: {ID: 6, Title: "Taslak"},
	}}
	svc := NewContactService(repo, listings, NewNotifier(config.NotifyConfig{WebhookURL: srv.URL, Token: "s3cret", Timeout: 2}))

	out, err := svc.SubmitContact(ctx, 5, &dto.ContactDTO{
		Name: " Ayşe ", Email: "ayse@example.com", Message: "Fiyat bilgisi alabilir miyim?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.ListingTitle != "Yalıkavak Villa" || out.Name != "Ayşe" || out.ID == "" {
		t.Fatalf("unexpected message %+v", out)
	}

	select {
	case msg := <-sub.Channel():
		if !strings.Contains(msg.Payload, out.ID) {
			t.Fatalf("event payload %s", msg.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no contact event published")
	}

	select {
	case body := <-hooked:
		if !strings.Contains(body, "contact.created") || !strings.Contains(body, "ayse@example.com") {
			t.Fatalf("webhook body %s", body)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("webhook not called")
	}
}

func TestSubmitContactRejects(t *testing.T) {
	setupRedis(t)
	listings := publishedOnly{listings: map[uint64]*model.Listing{6: {ID: 6, Title: "Taslak"}}}
	svc := NewContactService(&fakeContactRepo{}, listings, nil)
	ctx := context.Background()

	valid := &dto.ContactDTO{Name: "Ali", Email: "ali@example.com", Message: "Merhaba"}
	if _, err := svc.SubmitContact(ctx, 6, valid); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("unpublished listing must not accept contacts, got %v", err)
	}
	bad := *valid
	bad.Email = "not-an-email"
	if _, err := svc.SubmitContact(ctx, 6, &bad); !errors.Is(err, ErrParamInvalid) {
		t.Fatalf("expected ErrParamInvalid, got %v", err)
	}
}

func TestContactInbox(t *testing.T) {
	setupRedis(t)
	repo := &fakeContactRepo{}
	listings := publishedOnly{listings: map[uint64]*model.Listing{1: {ID: 1, Title: "Havuz", Published: true}}}
	svc := NewContactService(repo, listings, nil)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		out, err := svc.SubmitContact(ctx, 1, &dto.ContactDTO{Name: name, Email: "x@example.com", Message: "?"})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, out.ID)
	}
	if err := svc.MarkRead(ctx, ids[0]); err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkRead(ctx, "65f000000000000000000000"); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}

	page, err := svc.ListContacts(ctx, &dto.ContactQueryDTO{Unread: true, PageSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || page.Unread != 2 || len(page.Items) != 1 {
		t.Fatalf("unexpected inbox %+v", page)
	}
}
