package editor

import (
	"fmt"
	"path"
	"strings"
)

const (
	MaxImages = 30
	MaxVideos = 2
)

// MediaKind 图片或视频
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Origin 已持久化 或 暂存待上传
type Origin string

const (
	OriginPersisted Origin = "persisted"
	OriginStaged    Origin = "staged"
)

// videoExts 覆盖嗅探器可能给出的全部视频扩展名
var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".mqv": true, ".webm": true, ".m4v": true, ".avi": true,
	".mkv": true, ".3gp": true, ".3g2": true, ".mpeg": true, ".flv": true, ".asf": true,
	".ogv": true, ".mj2": true, ".dvb": true,
}

// KindFromName 根据扩展名推断媒体类型，持久化的媒体只保存 URL，
// 对象名的扩展名在暂存时由嗅探到的类型决定
func KindFromName(name string) MediaKind {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if videoExts[strings.ToLower(path.Ext(name))] {
		return MediaVideo
	}
	return MediaImage
}

// KindFromContentType 非图片非视频返回空
func KindFromContentType(contentType string) MediaKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaImage
	case strings.HasPrefix(contentType, "video/"):
		return MediaVideo
	}
	return ""
}

// Blob 暂存的文件，Handle 指向临时存储中的对象
type Blob struct {
	Handle      string    `json:"handle"`
	PreviewURL  string    `json:"preview_url"`
	PreviewKey  string    `json:"preview_key,omitempty"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Kind        MediaKind `json:"kind"`
}

// MediaItem 媒体序列中的一项
type MediaItem struct {
	Origin Origin    `json:"origin"`
	Kind   MediaKind `json:"kind"`
	URL    string    `json:"url,omitempty"`
	Blob   *Blob     `json:"blob,omitempty"`
}

// PersistedItem 由已保存的 URL 构造
func PersistedItem(url string) MediaItem {
	return MediaItem{Origin: OriginPersisted, Kind: KindFromName(url), URL: url}
}

// Reference 用于展示的地址
func (m MediaItem) Reference() string {
	if m.Origin == OriginStaged && m.Blob != nil {
		return m.Blob.PreviewURL
	}
	return m.URL
}

// Releaser 释放暂存项的预览资源
type Releaser interface {
	Release(blob Blob)
}

type ReleaserFunc func(blob Blob)

func (f ReleaserFunc) Release(blob Blob) { f(blob) }

type noopReleaser struct{}

func (noopReleaser) Release(Blob) {}

// MediaSet 有序媒体集合，persisted 与 staged 共用一个序列，index 0 为封面
type MediaSet struct {
	items    []MediaItem
	releaser Releaser
}

func NewMediaSet(items []MediaItem, releaser Releaser) *MediaSet {
	if releaser == nil {
		releaser = noopReleaser{}
	}
	s := &MediaSet{items: make([]MediaItem, 0, len(items)), releaser: releaser}
	for _, it := range items {
		if it.Origin == OriginStaged && it.Blob != nil {
			b := *it.Blob
			it.Blob = &b
		}
		s.items = append(s.items, it)
	}
	return s
}

func (s *MediaSet) Len() int {
	return len(s.items)
}

// Items 按逻辑顺序返回拷贝
func (s *MediaSet) Items() []MediaItem {
	out := make([]MediaItem, len(s.items))
	for i, it := range s.items {
		if it.Blob != nil {
			b := *it.Blob
			it.Blob = &b
		}
		out[i] = it
	}
	return out
}

// Staged 暂存项，按逻辑顺序
func (s *MediaSet) Staged() []Blob {
	var out []Blob
	for _, it := range s.items {
		if it.Origin == OriginStaged && it.Blob != nil {
			out = append(out, *it.Blob)
		}
	}
	return out
}

// Persisted 已保存的 URL，按逻辑顺序
func (s *MediaSet) Persisted() []string {
	var out []string
	for _, it := range s.items {
		if it.Origin == OriginPersisted {
			out = append(out, it.URL)
		}
	}
	return out
}

// Counts 返回图片与视频数量
func (s *MediaSet) Counts() (images, videos int) {
	for _, it := range s.items {
		if it.Kind == MediaVideo {
			videos++
		} else {
			images++
		}
	}
	return images, videos
}

func (s *MediaSet) Cover() (MediaItem, bool) {
	if len(s.items) == 0 {
		return MediaItem{}, false
	}
	return s.items[0], true
}

// CoverValid 有图片时封面必须是图片
func (s *MediaSet) CoverValid() bool {
	if len(s.items) == 0 || s.items[0].Kind != MediaVideo {
		return true
	}
	images, _ := s.Counts()
	return images == 0
}

// Append 追加暂存文件，整批超限则整批拒绝
func (s *MediaSet) Append(blobs []Blob) error {
	images, videos := s.Counts()
	var addImages, addVideos int
	staged := make([]MediaItem, 0, len(blobs))
	for _, b := range blobs {
		if b.Kind == "" {
			b.Kind = KindFromContentType(b.ContentType)
		}
		switch b.Kind {
		case MediaImage:
			addImages++
		case MediaVideo:
			addVideos++
		default:
			return fmt.Errorf("%w: %s (%s)", ErrUnsupportedMedia, b.Name, b.ContentType)
		}
		blob := b
		staged = append(staged, MediaItem{Origin: OriginStaged, Kind: b.Kind, Blob: &blob})
	}

	if images+addImages > MaxImages {
		return &CapacityError{Kind: MediaImage, Limit: MaxImages, Have: images, Adding: addImages}
	}
	if videos+addVideos > MaxVideos {
		return &CapacityError{Kind: MediaVideo, Limit: MaxVideos, Have: videos, Adding: addVideos}
	}

	s.items = append(s.items, staged...)
	return nil
}

func (s *MediaSet) checkIndex(i int) error {
	if i < 0 || i >= len(s.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(s.items))
	}
	return nil
}

// RemoveAt 删除一项，暂存项释放预览
func (s *MediaSet) RemoveAt(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	removed := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	if removed.Origin == OriginStaged && removed.Blob != nil {
		s.releaser.Release(*removed.Blob)
	}
	return nil
}

// videoToCover 操作后 index 0 会变成 candidate 时检查封面规则
func (s *MediaSet) videoToCover(candidate MediaItem) bool {
	if candidate.Kind != MediaVideo {
		return false
	}
	images, _ := s.Counts()
	return images > 0
}

// MoveLeft 与左侧相邻项交换，跨越 persisted/staged 边界同样交换
func (s *MediaSet) MoveLeft(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if i == 0 {
		return nil
	}
	if i == 1 && s.videoToCover(s.items[1]) {
		return ErrVideoCover
	}
	s.items[i-1], s.items[i] = s.items[i], s.items[i-1]
	return nil
}

// MoveRight 与右侧相邻项交换
func (s *MediaSet) MoveRight(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if i == len(s.items)-1 {
		return nil
	}
	if i == 0 && s.videoToCover(s.items[1]) {
		return ErrVideoCover
	}
	s.items[i], s.items[i+1] = s.items[i+1], s.items[i]
	return nil
}

// PromoteToCover 把 i 移到 index 0，其余顺延
func (s *MediaSet) PromoteToCover(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if i == 0 {
		return nil
	}
	item := s.items[i]
	if s.videoToCover(item) {
		return ErrVideoCover
	}
	copy(s.items[1:i+1], s.items[0:i])
	s.items[0] = item
	return nil
}

// Finalize 用上传结果按顺序替换暂存项，得到最终保存的 URL 列表
func (s *MediaSet) Finalize(uploaded []string) ([]string, error) {
	staged := 0
	for _, it := range s.items {
		if it.Origin == OriginStaged {
			staged++
		}
	}
	if len(uploaded) != staged {
		return nil, fmt.Errorf("editor: finalize got %d urls for %d staged items", len(uploaded), staged)
	}

	out := make([]string, 0, len(s.items))
	next := 0
	for _, it := range s.items {
		if it.Origin == OriginStaged {
			out = append(out, uploaded[next])
			next++
			continue
		}
		out = append(out, it.URL)
	}
	return out, nil
}

// ReleaseAll 释放全部暂存预览
func (s *MediaSet) ReleaseAll() {
	for _, it := range s.items {
		if it.Origin == OriginStaged && it.Blob != nil {
			s.releaser.Release(*it.Blob)
		}
	}
}
