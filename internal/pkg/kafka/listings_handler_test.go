package kafka

import (
	"Vitrin/internal/pkg/es"
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
)

type recordingES struct {
	indexed  map[uint64]*es.ListingES
	versions map[uint64]int64
	deleted  []uint64
	failOn   uint64
}

func newRecordingES() *recordingES {
	return &recordingES{indexed: map[uint64]*es.ListingES{}, versions: map[uint64]int64{}}
}

func (r *recordingES) SearchListings(context.Context, es.ListingSearch) ([]*es.ListingES, int64, error) {
	return nil, 0, nil
}

func (r *recordingES) IndexListing(_ context.Context, l *es.ListingES, version int64) error {
	if l.ID == r.failOn {
		return errors.New("es down")
	}
	r.indexed[l.ID] = l
	r.versions[l.ID] = version
	return nil
}

func (r *recordingES) DeleteListing(_ context.Context, id uint64) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func canal(value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "vitrin.listings", Value: []byte(value)}
}

func TestListingsHandlerIndexesPublished(t *testing.T) {
	repo := newRecordingES()
	h := NewListingsHandler(repo, 0)

	err := h.logic(context.Background(), canal(`{
		"table":"listings","type":"INSERT","ts":1714550400000,
		"data":[{"id":"7","kind":"project","category":"pool","title":"Havuz","location":"Bodrum",
			"area":"48.5","price":"0","year":"2024","featured":"1","published":"1","is_deleted":"0",
			"media":"[\"listings/a.jpg\",\"listings/b.mp4\"]","specs":"{\"depth\":150}",
			"created_at":"2024-05-01 10:00:00","updated_at":"2024-05-01 10:00:00"}]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	doc := repo.indexed[7]
	if doc == nil {
		t.Fatal("listing not indexed")
	}
	if doc.Cover != "listings/a.jpg" || doc.Area != 48.5 || doc.Year != 2024 || !doc.Featured {
		t.Fatalf("unexpected doc %+v", doc)
	}
	if doc.Specs["depth"] != float64(150) || doc.CreatedAt.IsZero() {
		t.Fatalf("unexpected doc %+v", doc)
	}
	if repo.versions[7] != 1714550400000 {
		t.Fatalf("version = %d", repo.versions[7])
	}
}

func TestListingsHandlerRemovesHiddenRows(t *testing.T) {
	repo := newRecordingES()
	h := NewListingsHandler(repo, 0)
	ctx := context.Background()

	msgs := []string{
		`{"table":"listings","type":"UPDATE","ts":2,"data":[{"id":"1","published":"0","is_deleted":"0"}]}`,
		`{"table":"listings","type":"UPDATE","ts":3,"data":[{"id":"2","published":"1","is_deleted":"1"}]}`,
		`{"table":"listings","type":"DELETE","ts":4,"data":[{"id":"3","published":"1","is_deleted":"0"}]}`,
	}
	for _, m := range msgs {
		if err := h.logic(ctx, canal(m)); err != nil {
			t.Fatal(err)
		}
	}
	if len(repo.deleted) != 3 || len(repo.indexed) != 0 {
		t.Fatalf("deleted %v indexed %v", repo.deleted, repo.indexed)
	}
}

func TestListingsHandlerSkipsAndRetries(t *testing.T) {
	repo := newRecordingES()
	repo.failOn = 9
	h := NewListingsHandler(repo, 0)
	ctx := context.Background()

	if err := h.logic(ctx, canal(`{"table":"admins","type":"INSERT","data":[{"id":"1"}]}`)); !errors.Is(err, ErrSkipMessage) {
		t.Fatalf("other tables must be skipped, got %v", err)
	}
	if err := h.logic(ctx, canal(`{"table":"listings","type":"UPDATE","data":[]}`)); !errors.Is(err, ErrSkipMessage) {
		t.Fatalf("empty rows must be skipped, got %v", err)
	}
	if err := h.logic(ctx, canal(`not json`)); !errors.Is(err, ErrSkipMessage) {
		t.Fatalf("malformed message must be skipped, got %v", err)
	}
	err := h.logic(ctx, canal(`{"table":"listings","type":"UPDATE","ts":5,"data":[{"id":"9","published":"1"}]}`))
	if err == nil {
		t.Fatal("index failure must be returned for retry")
	}
}

func TestCanalValueHelpers(t *testing.T) {
	if StrToUint64(nil) != 0 || StrToString(nil) != "" || StrToBool("0") || !StrToBool("1") {
		t.Fatal("unexpected conversion")
	}
	if got := StrToDateTime("2024-05-01 10:00:00"); got.Year() != 2024 || got.Month() != 5 {
		t.Fatalf("got %v", got)
	}
	if !StrToDateTime("bad").IsZero() {
		t.Fatal("bad datetime must be zero")
	}
}
