package editor

// Snapshot 会话的可序列化形式，服务端在请求之间保存草稿
type Snapshot struct {
	State      State          `json:"state"`
	ListingID  uint64         `json:"listing_id"`
	Category   Category       `json:"category"`
	Fields     Fields         `json:"fields"`
	Attributes map[string]any `json:"attributes"`
	Media      []MediaItem    `json:"media"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:      s.state,
		ListingID:  s.listingID,
		Category:   s.form.Category(),
		Fields:     s.fields,
		Attributes: s.form.Values(),
		Media:      s.media.Items(),
	}
}

// Restore 由快照重建会话，中断的提交按失败处理
func Restore(snap Snapshot, releaser Releaser) *Session {
	s := NewSession(releaser)
	switch snap.State {
	case "":
		s.state = StateLoading
	case StateSubmitting:
		s.state = StateFailed
	default:
		s.state = snap.State
	}
	s.listingID = snap.ListingID
	s.fields = snap.Fields
	s.form.Load(snap.Category, AttributeRecord(snap.Attributes))
	s.media = NewMediaSet(snap.Media, releaser)
	return s
}
