package service

import (
	"Vitrin/internal/api/config"
	"Vitrin/internal/api/dto"
	"Vitrin/internal/editor"
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/redis"
	"Vitrin/internal/pkg/util"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"golang.org/x/sync/errgroup"
)

const (
	draftLockTTL     = 2 * time.Minute
	defaultDraftTTL  = 6 * time.Hour
	listingMediaPath = "listings"
	draftMediaPath   = "drafts"
)

const (
	MoveLeft  = "left"
	MoveRight = "right"
	MoveCover = "cover"
)

// StageFile 待暂存的上传文件
type StageFile struct {
	Name string
	Size int64
	Body io.ReadSeeker
}

type DraftService interface {
	CreateDraft(ctx context.Context, adminID uint64, listingID *uint64) (*dto.DraftDTO, error)
	GetDraft(ctx context.Context, draftID string) (*dto.DraftDTO, error)
	UpdateFields(ctx context.Context, draftID string, req *dto.DraftFieldsDTO) (*dto.DraftDTO, error)
	SetCategory(ctx context.Context, draftID string, category string) (*dto.DraftDTO, error)
	SetAttributes(ctx context.Context, draftID string, values map[string]any) (*dto.DraftDTO, error)
	StageMedia(ctx context.Context, draftID string, files []StageFile) (*dto.DraftDTO, error)
	RemoveMedia(ctx context.Context, draftID string, index int) (*dto.DraftDTO, error)
	MoveMedia(ctx context.Context, draftID string, index int, direction string) (*dto.DraftDTO, error)
	Submit(ctx context.Context, draftID string) (*dto.SubmitResultDTO, error)
	Discard(ctx context.Context, draftID string) error
}

// draftEnvelope Redis 中保存的草稿
type draftEnvelope struct {
	AdminID   uint64          `json:"admin_id"`
	UpdatedAt int64           `json:"updated_at"`
	Snapshot  editor.Snapshot `json:"snapshot"`
}

type draftServiceImpl struct {
	listings       ListingStore
	storage        MediaStorage
	ttl            time.Duration
	uploadWorkers  int
	maxUploadBytes int64
}

func NewDraftService(listings ListingStore, storage MediaStorage, cfg config.EditorConfig, maxUploadMB int) DraftService {
	ttl := time.Duration(cfg.DraftTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	workers := cfg.UploadWorkers
	if workers <= 0 {
		workers = 4
	}
	return &draftServiceImpl{
		listings:       listings,
		storage:        storage,
		ttl:            ttl,
		uploadWorkers:  workers,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

// tempReleaser 收集被释放的暂存文件，请求结束后统一删除
type tempReleaser struct {
	blobs []editor.Blob
}

func (r *tempReleaser) Release(blob editor.Blob) {
	r.blobs = append(r.blobs, blob)
}

// draftTx 一次持锁的草稿修改
type draftTx struct {
	id       string
	lockID   string
	envelope *draftEnvelope
	session  *editor.Session
	released *tempReleaser
}

func (s *draftServiceImpl) CreateDraft(ctx context.Context, adminID uint64, listingID *uint64) (*dto.DraftDTO, error) {
	var record *editor.Record
	if listingID != nil && *listingID > 0 {
		var err error
		if record, err = s.listings.LoadRecord(ctx, *listingID); err != nil {
			return nil, err
		}
	}

	released := &tempReleaser{}
	session := editor.NewSession(released)
	if err := session.Load(record); err != nil {
		return nil, err
	}

	tx := &draftTx{
		id:       uuid.NewString(),
		envelope: &draftEnvelope{AdminID: adminID},
		session:  session,
		released: released,
	}
	if err := s.save(ctx, tx); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "draft created", "draft_id", tx.id, "listing_id", session.ListingID(), "admin_id", adminID)
	return s.view(ctx, tx.id, session), nil
}

func (s *draftServiceImpl) GetDraft(ctx context.Context, draftID string) (*dto.DraftDTO, error) {
	envelope, err := s.load(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, draftID, editor.Restore(envelope.Snapshot, nil)), nil
}

func (s *draftServiceImpl) UpdateFields(ctx context.Context, draftID string, req *dto.DraftFieldsDTO) (*dto.DraftDTO, error) {
	if err := util.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParamInvalid, err)
	}
	var fields editor.Fields
	if err := copier.Copy(&fields, req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, draftID, func(session *editor.Session) error {
		return session.UpdateFields(fields)
	})
}

func (s *draftServiceImpl) SetCategory(ctx context.Context, draftID string, category string) (*dto.DraftDTO, error) {
	return s.mutate(ctx, draftID, func(session *editor.Session) error {
		return session.SetCategory(editor.Category(strings.TrimSpace(category)))
	})
}

func (s *draftServiceImpl) SetAttributes(ctx context.Context, draftID string, values map[string]any) (*dto.DraftDTO, error) {
	return s.mutate(ctx, draftID, func(session *editor.Session) error {
		return session.SetAttributes(values)
	})
}

func (s *draftServiceImpl) RemoveMedia(ctx context.Context, draftID string, index int) (*dto.DraftDTO, error) {
	return s.mutate(ctx, draftID, func(session *editor.Session) error {
		return session.RemoveMedia(index)
	})
}

func (s *draftServiceImpl) MoveMedia(ctx context.Context, draftID string, index int, direction string) (*dto.DraftDTO, error) {
	var op func(*editor.Session, int) error
	switch direction {
	case MoveLeft:
		op = (*editor.Session).MoveMediaLeft
	case MoveRight:
		op = (*editor.Session).MoveMediaRight
	case MoveCover:
		op = (*editor.Session).PromoteMedia
	default:
		return nil, ErrParamInvalid
	}
	return s.mutate(ctx, draftID, func(session *editor.Session) error {
		return op(session, index)
	})
}

// StageMedia 上传到暂存桶并生成预览，整批加入媒体序列
func (s *draftServiceImpl) StageMedia(ctx context.Context, draftID string, files []StageFile) (*dto.DraftDTO, error) {
	if len(files) == 0 {
		return nil, ErrParamInvalid
	}
	contentTypes := make([]string, len(files))
	for i, f := range files {
		if s.maxUploadBytes > 0 && f.Size > s.maxUploadBytes {
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, f.Name)
		}
		contentType, err := util.GetSafeContentType(f.Body)
		if err != nil {
			return nil, err
		}
		if editor.KindFromContentType(contentType) == "" {
			return nil, fmt.Errorf("%w: %s", ErrFileNotSupported, f.Name)
		}
		contentTypes[i] = contentType
	}

	tx, err := s.begin(ctx, draftID)
	if err != nil {
		return nil, err
	}
	defer s.end(ctx, tx)

	blobs := make([]editor.Blob, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.uploadWorkers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			blob, err := s.stageOne(gctx, draftID, f, contentTypes[i])
			if err != nil {
				return err
			}
			blobs[i] = blob
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		s.purge(ctx, nonEmptyBlobs(blobs))
		return nil, err
	}

	if err = tx.session.Stage(blobs); err != nil {
		s.purge(ctx, blobs)
		return nil, err
	}
	if err = s.save(ctx, tx); err != nil {
		s.purge(ctx, blobs)
		return nil, err
	}
	log.InfoContext(ctx, "media staged", "draft_id", draftID, "count", len(blobs))
	return s.view(ctx, draftID, tx.session), nil
}

func (s *draftServiceImpl) stageOne(ctx context.Context, draftID string, f StageFile, contentType string) (editor.Blob, error) {
	objectName := util.ObjectName(draftMediaPath+"/"+draftID, contentType)
	key, err := s.storage.UploadTemp(ctx, objectName, f.Body, f.Size, contentType)
	if err != nil {
		return editor.Blob{}, &editor.UploadError{Name: f.Name, Err: err}
	}
	blob := editor.Blob{
		Handle:      key,
		Name:        f.Name,
		ContentType: contentType,
		Size:        f.Size,
		Kind:        editor.KindFromContentType(contentType),
	}

	if blob.Kind == editor.MediaImage {
		if thumbKey, err := s.makePreview(ctx, key, f.Body); err != nil {
			log.WarnContext(ctx, "thumbnail failed, fall back to original", "name", f.Name, "err", err)
		} else {
			blob.PreviewKey = thumbKey
		}
	}
	if blob.PreviewURL, err = s.previewURL(ctx, blob); err != nil {
		log.WarnContext(ctx, "presign preview failed", "key", key, "err", err)
	}

	meta, _ := json.Marshal(dto.MediaTempMetadata{
		DraftID:    draftID,
		MimeType:   contentType,
		Size:       f.Size,
		PreviewKey: blob.PreviewKey,
		CreatedAt:  time.Now().Unix(),
	})
	if err = redis.HSet(ctx, consts.MediaTempKey, key, string(meta)); err != nil {
		log.WarnContext(ctx, "record temp media failed", "key", key, "err", err)
	}
	return blob, nil
}

func (s *draftServiceImpl) makePreview(ctx context.Context, key string, body io.ReadSeeker) (string, error) {
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	thumb, err := util.MakeThumbnail(body, util.ThumbnailWidth)
	if err != nil {
		return "", err
	}
	return s.storage.UploadTemp(ctx, util.ThumbnailName(key), bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg")
}

func (s *draftServiceImpl) previewURL(ctx context.Context, blob editor.Blob) (string, error) {
	if blob.PreviewKey != "" {
		return s.storage.PresignTemp(ctx, blob.PreviewKey)
	}
	return s.storage.PresignTemp(ctx, blob.Handle)
}

// Submit 提交草稿，成功后删除草稿，失败时草稿保留供重试
func (s *draftServiceImpl) Submit(ctx context.Context, draftID string) (*dto.SubmitResultDTO, error) {
	tx, err := s.begin(ctx, draftID)
	if err != nil {
		return nil, err
	}
	defer s.end(ctx, tx)

	tx.session.SetUploadLimit(s.uploadWorkers)
	req, err := tx.session.Submit(ctx, &draftCollaborator{listings: s.listings, storage: s.storage})
	if err != nil {
		if saveErr := s.save(ctx, tx); saveErr != nil {
			log.ErrorContext(ctx, "save draft after failed submit", "draft_id", draftID, "err", saveErr)
		}
		log.WarnContext(ctx, "draft submit failed", "draft_id", draftID, "err", err)
		return nil, err
	}

	tx.session.Close()
	if err = redis.DeleteKey(ctx, consts.DraftSessionKey+draftID); err != nil {
		log.WarnContext(ctx, "delete submitted draft failed", "draft_id", draftID, "err", err)
	}
	log.InfoContext(ctx, "draft submitted", "draft_id", draftID, "listing_id", req.ListingID, "media", len(req.Media))

	urls := make([]string, 0, len(req.Media))
	for _, k := range req.Media {
		urls = append(urls, s.storage.PublicURL(k))
	}
	return &dto.SubmitResultDTO{ListingID: req.ListingID, Media: urls}, nil
}

// Discard 放弃草稿并删除暂存文件
func (s *draftServiceImpl) Discard(ctx context.Context, draftID string) error {
	tx, err := s.begin(ctx, draftID)
	if err != nil {
		return err
	}
	defer s.end(ctx, tx)

	if err = tx.session.Discard(); err != nil {
		return err
	}
	return redis.DeleteKey(ctx, consts.DraftSessionKey+draftID)
}

// mutate 加锁读取草稿，执行修改并写回
func (s *draftServiceImpl) mutate(ctx context.Context, draftID string, fn func(*editor.Session) error) (*dto.DraftDTO, error) {
	tx, err := s.begin(ctx, draftID)
	if err != nil {
		return nil, err
	}
	defer s.end(ctx, tx)

	if err = fn(tx.session); err != nil {
		tx.released.blobs = nil
		return nil, err
	}
	if err = s.save(ctx, tx); err != nil {
		tx.released.blobs = nil
		return nil, err
	}
	return s.view(ctx, draftID, tx.session), nil
}

func (s *draftServiceImpl) begin(ctx context.Context, draftID string) (*draftTx, error) {
	if _, err := uuid.Parse(draftID); err != nil {
		return nil, ErrDraftNotFound
	}
	lockKey := consts.DraftLock + draftID
	lockID := uuid.NewString()
	ok, err := redis.TryLock(ctx, lockKey, lockID, draftLockTTL, 0)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDraftBusy
	}

	envelope, err := s.load(ctx, draftID)
	if err != nil {
		redis.UnLock(ctx, lockKey, lockID)
		return nil, err
	}
	released := &tempReleaser{}
	return &draftTx{
		id:       draftID,
		lockID:   lockID,
		envelope: envelope,
		session:  editor.Restore(envelope.Snapshot, released),
		released: released,
	}, nil
}

// end 释放锁，并删除本次请求中被释放的暂存文件
func (s *draftServiceImpl) end(ctx context.Context, tx *draftTx) {
	redis.UnLock(context.WithoutCancel(ctx), consts.DraftLock+tx.id, tx.lockID)
	s.purge(ctx, tx.released.blobs)
}

func (s *draftServiceImpl) load(ctx context.Context, draftID string) (*draftEnvelope, error) {
	raw, err := redis.GetValue(ctx, consts.DraftSessionKey+draftID)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, ErrDraftNotFound
	}
	var envelope draftEnvelope
	if err = json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", draftID, err)
	}
	return &envelope, nil
}

func (s *draftServiceImpl) save(ctx context.Context, tx *draftTx) error {
	tx.envelope.Snapshot = tx.session.Snapshot()
	tx.envelope.UpdatedAt = time.Now().Unix()
	data, err := json.Marshal(tx.envelope)
	if err != nil {
		return err
	}
	return redis.SetWithExpiration(ctx, consts.DraftSessionKey+tx.id, string(data), s.ttl)
}

// purge 异步删除暂存文件及其预览
func (s *draftServiceImpl) purge(ctx context.Context, blobs []editor.Blob) {
	if len(blobs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		for _, b := range blobs {
			for _, key := range []string{b.Handle, b.PreviewKey} {
				if key == "" {
					continue
				}
				if err := s.storage.DeleteTemp(ctx, key); err != nil {
					log.WarnContext(ctx, "delete temp media failed", "key", key, "err", err)
				}
			}
			if err := redis.HDel(ctx, consts.MediaTempKey, b.Handle); err != nil {
				log.WarnContext(ctx, "forget temp media failed", "key", b.Handle, "err", err)
			}
		}
	}()
}

func nonEmptyBlobs(blobs []editor.Blob) []editor.Blob {
	out := make([]editor.Blob, 0, len(blobs))
	for _, b := range blobs {
		if b.Handle != "" {
			out = append(out, b)
		}
	}
	return out
}

func (s *draftServiceImpl) view(ctx context.Context, draftID string, session *editor.Session) *dto.DraftDTO {
	category := session.Category()
	kind, _ := editor.KindOf(category)
	out := &dto.DraftDTO{
		DraftID:    draftID,
		State:      string(session.State()),
		ListingID:  session.ListingID(),
		Kind:       string(kind),
		Category:   string(category),
		Attributes: session.Attributes(),
		Schema:     toAttributeDTOs(editor.AttributesFor(category)),
		Media:      []dto.DraftMediaDTO{},
		Missing:    []string{},
	}
	_ = copier.Copy(&out.Fields, session.Fields())

	for i, item := range session.Media() {
		m := dto.DraftMediaDTO{Index: i, Origin: string(item.Origin), Kind: string(item.Kind)}
		if item.Origin == editor.OriginStaged && item.Blob != nil {
			m.Name = item.Blob.Name
			url, err := s.previewURL(ctx, *item.Blob)
			if err != nil {
				url = item.Blob.PreviewURL
			}
			m.URL = url
		} else {
			m.URL = s.storage.PublicURL(item.URL)
		}
		switch item.Kind {
		case editor.MediaImage:
			out.Images++
		case editor.MediaVideo:
			out.Videos++
		}
		out.Media = append(out.Media, m)
	}
	if verr := session.Validate(); verr != nil {
		out.Missing = verr.Fields
	}
	return out
}

// draftCollaborator 提交时把暂存文件复制到主桶，并保存房源
type draftCollaborator struct {
	listings ListingStore
	storage  MediaStorage
}

func (c *draftCollaborator) Upload(ctx context.Context, blob editor.Blob) (string, error) {
	if blob.Handle == "" {
		return "", errors.New("staged blob has no handle")
	}
	return c.storage.CopyToMain(ctx, blob.Handle, util.ObjectName(listingMediaPath, blob.ContentType))
}

func (c *draftCollaborator) Persist(ctx context.Context, req *editor.PersistRequest) (uint64, error) {
	return c.listings.SaveListing(ctx, req)
}

func (c *draftCollaborator) Revert(ctx context.Context, urls []string) {
	for _, k := range urls {
		if err := c.storage.DeleteMain(ctx, k); err != nil {
			log.WarnContext(ctx, "revert uploaded media failed", "key", k, "err", err)
		}
	}
}
