package dto

// MediaTempMetadata 暂存文件的元数据，保存在 media:temp 哈希中，key 为暂存对象名
type MediaTempMetadata struct {
	DraftID    string `json:"draft_id"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	PreviewKey string `json:"preview_key,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}
