package job

import (
	"Vitrin/internal/api/dto"
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/redis"
	"context"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	tempExpiration = 24 * time.Hour
	// abandonGrace 上传完成到写入草稿之间的窗口
	abandonGrace   = 10 * time.Minute
	cleanupLockTTL = 5 * time.Minute
)

// TempDeleter 删除暂存桶中的对象
type TempDeleter interface {
	DeleteTemp(ctx context.Context, key string) error
}

// MediaCleanupJob 清理过期或草稿已失效的暂存文件
type MediaCleanupJob struct {
	storage TempDeleter
	now     func() time.Time
}

func NewMediaCleanupJob(storage TempDeleter) *MediaCleanupJob {
	return &MediaCleanupJob{storage: storage, now: time.Now}
}

func (s *MediaCleanupJob) Run() {
	ctx := context.Background()

	lockID := uuid.NewString()
	ok, err := redis.TryLock(ctx, consts.CleanupLock, lockID, cleanupLockTTL, 0)
	if err != nil || !ok {
		log.Info("media cleanup skipped, another instance is running", "err", err)
		return
	}
	defer redis.UnLock(ctx, consts.CleanupLock, lockID)

	count, err := s.Cleanup(ctx)
	if err != nil {
		log.Error("media cleanup job failed", "err", err)
		return
	}
	if count > 0 {
		log.Info("media cleanup job finished", "cleaned_count", count)
	}
}

// Cleanup 返回清理的暂存文件数
func (s *MediaCleanupJob) Cleanup(ctx context.Context) (int, error) {
	allMedia, err := redis.HGetAll(ctx, consts.MediaTempKey)
	if err != nil {
		return 0, err
	}

	now := s.now()
	alive := make(map[string]bool)
	count := 0

	for fileKey, val := range allMedia {
		var meta dto.MediaTempMetadata
		if err = json.Unmarshal([]byte(val), &meta); err != nil {
			log.Warn("invalid media meta format", "file_key", fileKey)
			continue
		}

		age := now.Sub(time.Unix(meta.CreatedAt, 0))
		if age <= abandonGrace {
			continue
		}
		if age <= tempExpiration && s.draftAlive(ctx, alive, meta.DraftID) {
			continue
		}

		if err = s.remove(ctx, fileKey, meta.PreviewKey); err != nil {
			log.Error("failed to delete temp media", "file_key", fileKey, "err", err)
			continue
		}
		count++
		log.Info("cleanup temp media", "file_key", fileKey, "draft_id", meta.DraftID, "mime", meta.MimeType)
	}
	return count, nil
}

func (s *MediaCleanupJob) draftAlive(ctx context.Context, cache map[string]bool, draftID string) bool {
	if draftID == "" {
		return false
	}
	if v, ok := cache[draftID]; ok {
		return v
	}
	exists, err := redis.Exists(ctx, consts.DraftSessionKey+draftID)
	if err != nil {
		// 查询失败时保留文件，下一轮再处理
		return true
	}
	cache[draftID] = exists
	return exists
}

func (s *MediaCleanupJob) remove(ctx context.Context, fileKey, previewKey string) error {
	if err := s.storage.DeleteTemp(ctx, fileKey); err != nil {
		return err
	}
	if previewKey != "" {
		if err := s.storage.DeleteTemp(ctx, previewKey); err != nil {
			log.Warn("failed to delete temp preview", "preview_key", previewKey, "err", err)
		}
	}
	return redis.HDel(ctx, consts.MediaTempKey, fileKey)
}
