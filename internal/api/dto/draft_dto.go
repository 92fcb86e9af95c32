package dto

type CreateDraftDTO struct {
	ListingID *uint64 `json:"listing_id"`
}

// DraftFieldsDTO 编辑中允许为空，提交时再校验必填
type DraftFieldsDTO struct {
	Title       string  `json:"title" validate:"max=255"`
	Location    string  `json:"location" validate:"max=255"`
	Area        float64 `json:"area" validate:"min=0"`
	YearOrPrice float64 `json:"year_or_price" validate:"min=0"`
	Description string  `json:"description" validate:"max=10000"`
	Featured    bool    `json:"featured"`
	Published   bool    `json:"published"`
}

type DraftCategoryDTO struct {
	Category string `json:"category" binding:"required"`
}

type DraftAttributesDTO struct {
	Values map[string]any `json:"values" binding:"required"`
}

type DraftMediaDTO struct {
	Index  int    `json:"index"`
	Origin string `json:"origin"`
	Kind   string `json:"kind"`
	URL    string `json:"url"`
	Name   string `json:"name,omitempty"`
}

// DraftDTO 草稿当前状态
type DraftDTO struct {
	DraftID    string          `json:"draft_id"`
	State      string          `json:"state"`
	ListingID  uint64          `json:"listing_id,omitempty"`
	Kind       string          `json:"kind,omitempty"`
	Category   string          `json:"category"`
	Fields     DraftFieldsDTO  `json:"fields"`
	Attributes map[string]any  `json:"attributes"`
	Schema     []AttributeDTO  `json:"schema"`
	Media      []DraftMediaDTO `json:"media"`
	Images     int             `json:"images"`
	Videos     int             `json:"videos"`
	Missing    []string        `json:"missing"`
}

type SubmitResultDTO struct {
	ListingID uint64   `json:"listing_id"`
	Media     []string `json:"media"`
}
