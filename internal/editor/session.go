package editor

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// State 编辑会话状态
type State string

const (
	StateLoading    State = "loading"
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
	StateClosed     State = "closed"
)

const defaultUploadLimit = 4

// Fields 草稿的基础字段
// YearOrPrice 对房产是售价，对设计作品是完成年份
type Fields struct {
	Title       string  `json:"title"`
	Location    string  `json:"location"`
	Area        float64 `json:"area"`
	YearOrPrice float64 `json:"year_or_price"`
	Description string  `json:"description"`
	Featured    bool    `json:"featured"`
	Published   bool    `json:"published"`
}

// Record 已保存的房源，用于编辑已有数据
type Record struct {
	ID       uint64
	Category Category
	Fields   Fields
	Media    []string
	Specs    AttributeRecord
}

// PersistRequest 提交时交给后端保存的完整快照
type PersistRequest struct {
	ListingID uint64
	Kind      ListingKind
	Category  Category
	Fields    Fields
	Media     []string
	Specs     AttributeRecord
}

// Collaborator 上传与保存
type Collaborator interface {
	Upload(ctx context.Context, blob Blob) (string, error)
	Persist(ctx context.Context, req *PersistRequest) (uint64, error)
}

// UploadReverter 提交失败时清理已上传的对象
type UploadReverter interface {
	Revert(ctx context.Context, urls []string)
}

// Session 单个草稿的编辑会话，由一个编辑者独占
type Session struct {
	mu          sync.Mutex
	state       State
	listingID   uint64
	fields      Fields
	form        *AttributeForm
	media       *MediaSet
	releaser    Releaser
	uploadLimit int
}

func NewSession(releaser Releaser) *Session {
	return &Session{
		state:       StateLoading,
		form:        NewAttributeForm(""),
		media:       NewMediaSet(nil, releaser),
		releaser:    releaser,
		uploadLimit: defaultUploadLimit,
	}
}

// SetUploadLimit 提交时并发上传数
func (s *Session) SetUploadLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.uploadLimit = n
	}
}

// Load 以空草稿或已有房源初始化会话，已有媒体全部标记为 persisted
func (s *Session) Load(existing *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		if s.state == StateClosed {
			return ErrClosed
		}
		return ErrNotLoaded
	}

	if existing != nil {
		s.listingID = existing.ID
		s.fields = existing.Fields
		category := existing.Category
		if category == "" {
			category = existing.Specs.Category()
		}
		s.form.Load(category, existing.Specs)
		items := make([]MediaItem, 0, len(existing.Media))
		for _, url := range existing.Media {
			items = append(items, PersistedItem(url))
		}
		s.media = NewMediaSet(items, s.releaser)
	}
	s.state = StateEditing
	return nil
}

// beginEdit 必须持锁调用
func (s *Session) beginEdit() error {
	switch s.state {
	case StateEditing:
		return nil
	case StateFailed:
		s.state = StateEditing
		return nil
	case StateSubmitting:
		return ErrSubmitting
	case StateLoading:
		return ErrNotLoaded
	default:
		return ErrClosed
	}
}

func (s *Session) edit(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginEdit(); err != nil {
		return err
	}
	return fn()
}

func (s *Session) Stage(blobs []Blob) error {
	return s.edit(func() error { return s.media.Append(blobs) })
}

func (s *Session) RemoveMedia(i int) error {
	return s.edit(func() error { return s.media.RemoveAt(i) })
}

func (s *Session) MoveMediaLeft(i int) error {
	return s.edit(func() error { return s.media.MoveLeft(i) })
}

func (s *Session) MoveMediaRight(i int) error {
	return s.edit(func() error { return s.media.MoveRight(i) })
}

func (s *Session) PromoteMedia(i int) error {
	return s.edit(func() error { return s.media.PromoteToCover(i) })
}

// SetCategory 切换分类，已填写的属性会被清空
func (s *Session) SetCategory(category Category) error {
	return s.edit(func() error {
		if !IsValidCategory(category) {
			return &ValidationError{Fields: []string{"category"}}
		}
		s.form.SetCategory(category)
		return nil
	})
}

func (s *Session) SetAttribute(key string, value any) error {
	return s.edit(func() error { return s.form.SetValue(key, value) })
}

// SetAttributes 批量写入，任一失败则不生效
func (s *Session) SetAttributes(values map[string]any) error {
	return s.edit(func() error {
		staged := &AttributeForm{category: s.form.category, values: s.form.Values()}
		for k, v := range values {
			if err := staged.SetValue(k, v); err != nil {
				return err
			}
		}
		s.form = staged
		return nil
	})
}

func (s *Session) UpdateFields(fields Fields) error {
	return s.edit(func() error {
		s.fields = fields
		return nil
	})
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) ListingID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listingID
}

func (s *Session) Fields() Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields
}

func (s *Session) Category() Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Category()
}

func (s *Session) Attributes() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Values()
}

func (s *Session) Media() []MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media.Items()
}

// Validate 返回缺失或非法的字段，nil 表示可以提交
func (s *Session) Validate() *ValidationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validate()
}

func (s *Session) validate() *ValidationError {
	var fields []string
	if !IsValidCategory(s.form.Category()) {
		fields = append(fields, "category")
	}
	if strings.TrimSpace(s.fields.Title) == "" {
		fields = append(fields, "title")
	}
	if strings.TrimSpace(s.fields.Location) == "" {
		fields = append(fields, "location")
	}
	if s.fields.Area <= 0 {
		fields = append(fields, "area")
	}
	if s.fields.YearOrPrice <= 0 {
		fields = append(fields, "year_or_price")
	}
	if strings.TrimSpace(s.fields.Description) == "" {
		fields = append(fields, "description")
	}
	fields = append(fields, s.form.Missing()...)
	if !s.media.CoverValid() {
		fields = append(fields, "media")
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Submit 校验、按暂存顺序上传、生成最终媒体列表并保存
// 任一步失败时草稿保持不变，状态进入 Failed
func (s *Session) Submit(ctx context.Context, c Collaborator) (*PersistRequest, error) {
	s.mu.Lock()
	switch s.state {
	case StateEditing, StateFailed:
	case StateSubmitting:
		s.mu.Unlock()
		return nil, ErrSubmitting
	case StateLoading:
		s.mu.Unlock()
		return nil, ErrNotLoaded
	default:
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if verr := s.validate(); verr != nil {
		s.state = StateEditing
		s.mu.Unlock()
		return nil, verr
	}
	s.state = StateSubmitting
	staged := s.media.Staged()
	limit := s.uploadLimit
	s.mu.Unlock()

	uploaded := make([]string, len(staged))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, blob := range staged {
		i, blob := i, blob
		g.Go(func() error {
			url, err := c.Upload(gctx, blob)
			if err != nil {
				return &UploadError{Name: blob.Name, Err: err}
			}
			uploaded[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.revert(ctx, c, uploaded)
		s.fail()
		return nil, err
	}

	s.mu.Lock()
	media, err := s.media.Finalize(uploaded)
	if err != nil {
		s.state = StateFailed
		s.mu.Unlock()
		s.revert(ctx, c, uploaded)
		return nil, &UploadError{Name: "media", Err: err}
	}
	category := s.form.Category()
	kind, _ := KindOf(category)
	req := &PersistRequest{
		ListingID: s.listingID,
		Kind:      kind,
		Category:  category,
		Fields:    s.fields,
		Media:     media,
		Specs:     s.form.ToRecord(),
	}
	s.mu.Unlock()

	id, err := c.Persist(ctx, req)
	if err != nil {
		s.revert(ctx, c, uploaded)
		s.fail()
		return nil, &PersistError{Err: err}
	}

	s.mu.Lock()
	req.ListingID = id
	s.listingID = id
	s.state = StateSucceeded
	s.mu.Unlock()
	return req, nil
}

func (s *Session) fail() {
	s.mu.Lock()
	s.state = StateFailed
	s.mu.Unlock()
}

func (s *Session) revert(ctx context.Context, c Collaborator, uploaded []string) {
	r, ok := c.(UploadReverter)
	if !ok {
		return
	}
	var done []string
	for _, u := range uploaded {
		if u != "" {
			done = append(done, u)
		}
	}
	if len(done) > 0 {
		r.Revert(context.WithoutCancel(ctx), done)
	}
}

// Close 提交成功后关闭会话并释放暂存预览
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.media.ReleaseAll()
	s.state = StateClosed
}

// Discard 放弃草稿，提交中不能放弃
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateSubmitting:
		return ErrSubmitting
	case StateClosed:
		return ErrClosed
	}
	s.media.ReleaseAll()
	s.state = StateClosed
	return nil
}
