package job

import (
	"Vitrin/internal/api/dto"
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/redis"
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
)

type recordingDeleter struct {
	deleted []string
	fail    string
}

func (r *recordingDeleter) DeleteTemp(_ context.Context, key string) error {
	if key == r.fail {
		return errors.New("minio unavailable")
	}
	r.deleted = append(r.deleted, key)
	return nil
}

func putMeta(t *testing.T, key string, meta dto.MediaTempMetadata) {
	t.Helper()
	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatal(err)
	}
	if err = redis.HSet(context.Background(), consts.MediaTempKey, key, string(data)); err != nil {
		t.Fatal(err)
	}
}

func TestMediaCleanup(t *testing.T) {
	mr := miniredis.RunT(t)
	redis.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mr.Set(consts.DraftSessionKey+"live", "{}")

	putMeta(t, "drafts/live/a.jpg", dto.MediaTempMetadata{DraftID: "live", CreatedAt: now.Add(-time.Hour).Unix()})
	putMeta(t, "drafts/gone/b.jpg", dto.MediaTempMetadata{
		DraftID: "gone", PreviewKey: "drafts/gone/b_thumb.jpg", CreatedAt: now.Add(-time.Hour).Unix(),
	})
	putMeta(t, "drafts/gone/fresh.jpg", dto.MediaTempMetadata{DraftID: "gone", CreatedAt: now.Add(-time.Minute).Unix()})
	putMeta(t, "drafts/live/old.mp4", dto.MediaTempMetadata{DraftID: "live", CreatedAt: now.Add(-25 * time.Hour).Unix()})
	putMeta(t, "drafts/gone/stuck.jpg", dto.MediaTempMetadata{DraftID: "gone", CreatedAt: now.Add(-time.Hour).Unix()})

	deleter := &recordingDeleter{fail: "drafts/gone/stuck.jpg"}
	j := NewMediaCleanupJob(deleter)
	j.now = func() time.Time { return now }

	n, err := j.Cleanup(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("cleaned %d, want 2", n)
	}
	for _, key := range []string{"drafts/gone/b.jpg", "drafts/gone/b_thumb.jpg", "drafts/live/old.mp4"} {
		if !slices.Contains(deleter.deleted, key) {
			t.Errorf("%s not deleted", key)
		}
	}
	left, _ := mr.HKeys(consts.MediaTempKey)
	slices.Sort(left)
	want := []string{"drafts/gone/fresh.jpg", "drafts/gone/stuck.jpg", "drafts/live/a.jpg"}
	if !slices.Equal(left, want) {
		t.Fatalf("remaining %v, want %v", left, want)
	}
}

func TestMediaCleanupSkipsWhenLocked(t *testing.T) {
	mr := miniredis.RunT(t)
	redis.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	putMeta(t, "drafts/x/a.jpg", dto.MediaTempMetadata{DraftID: "x", CreatedAt: 1})
	mr.Set(consts.CleanupLock, "other")

	deleter := &recordingDeleter{}
	NewMediaCleanupJob(deleter).Run()
	if len(deleter.deleted) != 0 {
		t.Fatalf("job ran while locked: %v", deleter.deleted)
	}
}
