package service

import (
	"Vitrin/internal/api/config"
	"Vitrin/internal/api/dto"
	"Vitrin/internal/editor"
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/redis"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

type fakeStorage struct {
	mu      sync.Mutex
	temp    map[string][]byte
	main    map[string][]byte
	copyErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{temp: map[string][]byte{}, main: map[string][]byte{}}
}

func (f *fakeStorage) UploadTemp(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.temp[objectName] = data
	return objectName, nil
}

func (f *fakeStorage) CopyToMain(_ context.Context, tempKey, objectName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyErr != nil {
		return "", f.copyErr
	}
	data, ok := f.temp[tempKey]
	if !ok {
		return "", errors.New("temp object not found: " + tempKey)
	}
	f.main[objectName] = data
	return objectName, nil
}

func (f *fakeStorage) DeleteMain(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.main, key)
	return nil
}

func (f *fakeStorage) DeleteTemp(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.temp, key)
	return nil
}

func (f *fakeStorage) PresignTemp(_ context.Context, key string) (string, error) {
	return "http://temp.local/" + key + "?sig=1", nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "http://cdn.local/" + key
}

func (f *fakeStorage) counts() (temp, main int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.temp), len(f.main)
}

type fakeListingStore struct {
	mu         sync.Mutex
	records    map[uint64]*editor.Record
	saved      []*editor.PersistRequest
	persistErr error
	nextID     uint64
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{records: map[uint64]*editor.Record{}, nextID: 100}
}

func (f *fakeListingStore) LoadRecord(_ context.Context, id uint64) (*editor.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	return rec, nil
}

func (f *fakeListingStore) SaveListing(_ context.Context, req *editor.PersistRequest) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.persistErr != nil {
		return 0, f.persistErr
	}
	id := req.ListingID
	if id == 0 {
		f.nextID++
		id = f.nextID
	}
	f.saved = append(f.saved, req)
	return id, nil
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	redis.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redis.Rdb.Close() })
	return mr
}

func newTestDraftService(store ListingStore, storage MediaStorage) DraftService {
	return NewDraftService(store, storage, config.EditorConfig{DraftTTLHours: 6, UploadWorkers: 2}, 10)
}

func pngFile(t *testing.T, name string, w, h int) StageFile {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return StageFile{Name: name, Size: int64(buf.Len()), Body: bytes.NewReader(buf.Bytes())}
}

// videoFile 只含 ftyp 头，足够被识别为视频
func videoFile(name, brand string) StageFile {
	data := append([]byte{0, 0, 0, 0x18}, "ftyp"+brand...)
	data = append(data, make([]byte, 32)...)
	return StageFile{Name: name, Size: int64(len(data)), Body: bytes.NewReader(data)}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func fillDraft(t *testing.T, svc DraftService, id string) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.SetCategory(ctx, id, string(editor.CategoryResidential)); err != nil {
		t.Fatal(err)
	}
	_, err := svc.UpdateFields(ctx, id, &dto.DraftFieldsDTO{
		Title:       "Yalıkavak 3+1",
		Location:    "Bodrum, Muğla",
		Area:        145,
		YearOrPrice: 12_500_000,
		Description: "Deniz manzaralı daire",
		Published:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDraftStageAndSubmit(t *testing.T) {
	mr := setupRedis(t)
	storage := newFakeStorage()
	store := newFakeListingStore()
	svc := newTestDraftService(store, storage)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	fillDraft(t, svc, draft.DraftID)
	if _, err = svc.SetAttributes(ctx, draft.DraftID, map[string]any{"rooms": "3+1", "parking": "on"}); err != nil {
		t.Fatal(err)
	}

	view, err := svc.StageMedia(ctx, draft.DraftID, []StageFile{
		pngFile(t, "salon.png", 900, 600),
		pngFile(t, "cephe.png", 40, 30),
	})
	if err != nil {
		t.Fatal(err)
	}
	if view.Images != 2 || len(view.Media) != 2 || view.Media[0].Origin != string(editor.OriginStaged) {
		t.Fatalf("unexpected media view %+v", view.Media)
	}
	if !strings.Contains(view.Media[0].URL, "_thumb.jpg") {
		t.Fatalf("image preview should be the thumbnail, got %s", view.Media[0].URL)
	}
	if n, _ := mr.HKeys(consts.MediaTempKey); len(n) != 2 {
		t.Fatalf("expected 2 temp records, got %v", n)
	}

	if _, err = svc.MoveMedia(ctx, draft.DraftID, 1, MoveCover); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Submit(ctx, draft.DraftID)
	if err != nil {
		t.Fatal(err)
	}
	if res.ListingID != 101 || len(res.Media) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}

	saved := store.saved[0]
	if saved.Kind != editor.KindProperty || saved.Category != editor.CategoryResidential {
		t.Fatalf("kind/category %s/%s", saved.Kind, saved.Category)
	}
	if saved.Specs.Category() != editor.CategoryResidential || saved.Specs["parking"] != true {
		t.Fatalf("specs %v", saved.Specs)
	}
	for _, k := range saved.Media {
		if !strings.HasPrefix(k, listingMediaPath+"/") {
			t.Fatalf("media must live in the main bucket path, got %s", k)
		}
	}
	if !strings.HasSuffix(res.Media[0], ".png") {
		t.Fatalf("unexpected url %s", res.Media[0])
	}

	if mr.Exists(consts.DraftSessionKey + draft.DraftID) {
		t.Fatal("submitted draft must be removed")
	}
	eventually(t, "temp files purged", func() bool {
		temp, main := storage.counts()
		return temp == 0 && main == 2
	})
	eventually(t, "temp records forgotten", func() bool {
		keys, _ := mr.HKeys(consts.MediaTempKey)
		return len(keys) == 0
	})
}

func TestDraftLockRejectsConcurrentEdits(t *testing.T) {
	mr := setupRedis(t)
	svc := newTestDraftService(newFakeListingStore(), newFakeStorage())
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err = mr.Set(consts.DraftLock+draft.DraftID, "submit-in-flight"); err != nil {
		t.Fatal(err)
	}

	_, err = svc.UpdateFields(ctx, draft.DraftID, &dto.DraftFieldsDTO{Title: "x"})
	if !errors.Is(err, ErrDraftBusy) {
		t.Fatalf("expected ErrDraftBusy, got %v", err)
	}
	if _, err = svc.Submit(ctx, draft.DraftID); !errors.Is(err, ErrDraftBusy) {
		t.Fatalf("expected ErrDraftBusy, got %v", err)
	}

	mr.Del(consts.DraftLock + draft.DraftID)
	if _, err = svc.UpdateFields(ctx, draft.DraftID, &dto.DraftFieldsDTO{Title: "x"}); err != nil {
		t.Fatalf("edit after unlock: %v", err)
	}
	if mr.Exists(consts.DraftLock + draft.DraftID) {
		t.Fatal("lock must be released after the request")
	}
}

func TestDraftPersistFailureKeepsDraft(t *testing.T) {
	setupRedis(t)
	storage := newFakeStorage()
	store := newFakeListingStore()
	store.persistErr = errors.New("deadlock found")
	svc := newTestDraftService(store, storage)
	ctx := context.Background()

	draft, _ := svc.CreateDraft(ctx, 1, nil)
	fillDraft(t, svc, draft.DraftID)
	if _, err := svc.StageMedia(ctx, draft.DraftID, []StageFile{pngFile(t, "a.png", 10, 10)}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Submit(ctx, draft.DraftID)
	if !errors.Is(err, editor.ErrPersist) || !strings.Contains(err.Error(), "deadlock found") {
		t.Fatalf("expected persist error, got %v", err)
	}
	if _, main := storage.counts(); main != 0 {
		t.Fatalf("uploaded objects must be reverted, main=%d", main)
	}

	view, err := svc.GetDraft(ctx, draft.DraftID)
	if err != nil {
		t.Fatal(err)
	}
	if view.State != string(editor.StateFailed) || len(view.Media) != 1 || view.Media[0].Origin != string(editor.OriginStaged) {
		t.Fatalf("draft must survive untouched, got %+v", view)
	}

	store.mu.Lock()
	store.persistErr = nil
	store.mu.Unlock()
	res, err := svc.Submit(ctx, draft.DraftID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(res.Media) != 1 {
		t.Fatalf("unexpected retry result %+v", res)
	}
}

func TestDraftUploadFailureKeepsDraft(t *testing.T) {
	setupRedis(t)
	storage := newFakeStorage()
	store := newFakeListingStore()
	svc := newTestDraftService(store, storage)
	ctx := context.Background()

	draft, _ := svc.CreateDraft(ctx, 1, nil)
	fillDraft(t, svc, draft.DraftID)
	if _, err := svc.StageMedia(ctx, draft.DraftID, []StageFile{pngFile(t, "a.png", 10, 10)}); err != nil {
		t.Fatal(err)
	}
	storage.copyErr = errors.New("bucket unavailable")

	_, err := svc.Submit(ctx, draft.DraftID)
	var uerr *editor.UploadError
	if !errors.As(err, &uerr) || uerr.Name != "a.png" {
		t.Fatalf("expected upload error naming the file, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatal("persist must not run after an upload failure")
	}
	if temp, _ := storage.counts(); temp == 0 {
		t.Fatal("staged files must be kept for retry")
	}
}

func TestDraftStageRejectsUnsupportedFiles(t *testing.T) {
	setupRedis(t)
	storage := newFakeStorage()
	svc := newTestDraftService(newFakeListingStore(), storage)
	ctx := context.Background()

	draft, _ := svc.CreateDraft(ctx, 1, nil)
	text := []byte("plain text, not a photo")
	_, err := svc.StageMedia(ctx, draft.DraftID, []StageFile{
		pngFile(t, "ok.png", 10, 10),
		{Name: "notes.txt", Size: int64(len(text)), Body: bytes.NewReader(text)},
	})
	if !errors.Is(err, ErrFileNotSupported) {
		t.Fatalf("expected ErrFileNotSupported, got %v", err)
	}
	if temp, _ := storage.counts(); temp != 0 {
		t.Fatalf("nothing may be uploaded when a file is rejected, temp=%d", temp)
	}

	big := pngFile(t, "big.png", 10, 10)
	big.Size = 11 << 20
	if _, err = svc.StageMedia(ctx, draft.DraftID, []StageFile{big}); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestDraftEditsExistingListing(t *testing.T) {
	setupRedis(t)
	store := newFakeListingStore()
	store.records[7] = &editor.Record{
		ID:       7,
		Category: editor.CategoryLand,
		Fields: editor.Fields{
			Title: "Gümüşlük Arsa", Location: "Bodrum", Area: 1200, YearOrPrice: 9_000_000,
			Description: "Zeytinlik",
		},
		Media: []string{"listings/a.jpg", "listings/b.jpg"},
		Specs: editor.AttributeRecord{"category": string(editor.CategoryLand), "zoning": "villa"},
	}
	svc := newTestDraftService(store, newFakeStorage())
	ctx := context.Background()

	id := uint64(7)
	draft, err := svc.CreateDraft(ctx, 1, &id)
	if err != nil {
		t.Fatal(err)
	}
	if draft.ListingID != 7 || draft.Attributes["zoning"] != "villa" || len(draft.Missing) != 0 {
		t.Fatalf("unexpected loaded draft %+v", draft)
	}
	if draft.Media[0].URL != "http://cdn.local/listings/a.jpg" {
		t.Fatalf("persisted media url %s", draft.Media[0].URL)
	}

	if _, err = svc.MoveMedia(ctx, draft.DraftID, 0, MoveRight); err != nil {
		t.Fatal(err)
	}
	if _, err = svc.Submit(ctx, draft.DraftID); err != nil {
		t.Fatal(err)
	}
	saved := store.saved[0]
	if saved.ListingID != 7 || saved.Media[0] != "listings/b.jpg" || saved.Media[1] != "listings/a.jpg" {
		t.Fatalf("unexpected save %+v", saved)
	}

	missing := uint64(99)
	if _, err = svc.CreateDraft(ctx, 1, &missing); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestDraftVideoKindSurvivesReload(t *testing.T) {
	setupRedis(t)
	store := newFakeListingStore()
	svc := newTestDraftService(store, newFakeStorage())
	ctx := context.Background()

	draft, _ := svc.CreateDraft(ctx, 1, nil)
	fillDraft(t, svc, draft.DraftID)
	view, err := svc.StageMedia(ctx, draft.DraftID, []StageFile{
		pngFile(t, "a.png", 10, 10),
		videoFile("clip", "isom"),
		videoFile("tour.3gp", "3gp4"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if view.Images != 1 || view.Videos != 2 {
		t.Fatalf("staged images=%d videos=%d", view.Images, view.Videos)
	}

	res, err := svc.Submit(ctx, draft.DraftID)
	if err != nil {
		t.Fatal(err)
	}
	saved := store.saved[0]
	if !strings.HasSuffix(saved.Media[1], ".mp4") || !strings.HasSuffix(saved.Media[2], ".3gp") {
		t.Fatalf("object names must carry the sniffed extension, got %v", saved.Media)
	}

	store.records[res.ListingID] = &editor.Record{
		ID:       res.ListingID,
		Category: saved.Category,
		Fields:   saved.Fields,
		Media:    saved.Media,
		Specs:    saved.Specs,
	}
	id := res.ListingID
	reopened, err := svc.CreateDraft(ctx, 1, &id)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Images != 1 || reopened.Videos != 2 {
		t.Fatalf("reloaded images=%d videos=%d", reopened.Images, reopened.Videos)
	}
	if _, err = svc.StageMedia(ctx, reopened.DraftID, []StageFile{videoFile("extra", "isom")}); !errors.Is(err, editor.ErrCapacity) {
		t.Fatalf("video cap must hold after reload, got %v", err)
	}
	if _, err = svc.MoveMedia(ctx, reopened.DraftID, 1, MoveCover); !errors.Is(err, editor.ErrVideoCover) {
		t.Fatalf("a reloaded video must not become the cover, got %v", err)
	}
}

func TestDraftDiscardPurgesStagedFiles(t *testing.T) {
	mr := setupRedis(t)
	storage := newFakeStorage()
	svc := newTestDraftService(newFakeListingStore(), storage)
	ctx := context.Background()

	draft, _ := svc.CreateDraft(ctx, 1, nil)
	if _, err := svc.StageMedia(ctx, draft.DraftID, []StageFile{pngFile(t, "a.png", 10, 10)}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Discard(ctx, draft.DraftID); err != nil {
		t.Fatal(err)
	}
	if mr.Exists(consts.DraftSessionKey + draft.DraftID) {
		t.Fatal("discarded draft must be removed")
	}
	eventually(t, "temp files purged", func() bool {
		temp, _ := storage.counts()
		return temp == 0
	})
	if _, err := svc.GetDraft(ctx, draft.DraftID); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}

func TestDraftEditorErrorsSurface(t *testing.T) {
	setupRedis(t)
	svc := newTestDraftService(newFakeListingStore(), newFakeStorage())
	ctx := context.Background()

	draft, _ := svc.CreateDraft(ctx, 1, nil)
	if _, err := svc.SetAttributes(ctx, draft.DraftID, map[string]any{"zoning": "villa"}); !errors.Is(err, editor.ErrUnknownAttribute) {
		t.Fatalf("expected ErrUnknownAttribute, got %v", err)
	}
	if _, err := svc.MoveMedia(ctx, draft.DraftID, 3, MoveLeft); !errors.Is(err, editor.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := svc.MoveMedia(ctx, draft.DraftID, 0, "up"); !errors.Is(err, ErrParamInvalid) {
		t.Fatalf("expected ErrParamInvalid, got %v", err)
	}
	_, err := svc.Submit(ctx, draft.DraftID)
	var verr *editor.ValidationError
	if !errors.As(err, &verr) || verr.Fields[0] != "category" {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err = svc.GetDraft(ctx, "not-a-uuid"); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}
