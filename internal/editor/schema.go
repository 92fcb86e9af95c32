package editor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ListingKind 房产(property) 或 设计作品(project)
type ListingKind string

const (
	KindProperty ListingKind = "property"
	KindProject  ListingKind = "project"
)

// Category 分类，同时决定结构化属性表单
type Category string

const (
	CategoryResidential Category = "Konut"
	CategoryLand        Category = "Arsa"
	CategoryCommercial  Category = "Ticari"
	CategoryPool        Category = "Havuz Tasarımı"
	CategoryLandscape   Category = "Peyzaj & Bahçe"
	CategoryInterior    Category = "İç Mimari"
)

// FieldType 属性值类型
type FieldType string

const (
	FieldNumber FieldType = "number"
	FieldText   FieldType = "text"
	FieldBool   FieldType = "bool"
	FieldChoice FieldType = "choice"
)

// Choice 枚举选项
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SchemaEntry 分类属性描述
type SchemaEntry struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Unit     string    `json:"unit,omitempty"`
	Choices  []Choice  `json:"choices,omitempty"`
	Required bool      `json:"required"`
}

func (e SchemaEntry) choiceLabel(value string) (string, bool) {
	for _, c := range e.Choices {
		if c.Value == value {
			return c.Label, true
		}
	}
	return "", false
}

type categorySchema struct {
	kind    ListingKind
	entries []SchemaEntry
}

var (
	floorEntry   = SchemaEntry{Key: "floor", Label: "Bulunduğu Kat", Type: FieldNumber}
	parkingEntry = SchemaEntry{Key: "parking", Label: "Otopark", Type: FieldBool}
)

var categoryOrder = []Category{
	CategoryResidential,
	CategoryLand,
	CategoryCommercial,
	CategoryPool,
	CategoryLandscape,
	CategoryInterior,
}

var registry = map[Category]categorySchema{
	CategoryResidential: {
		kind: KindProperty,
		entries: []SchemaEntry{
			{Key: "rooms", Label: "Oda Sayısı", Type: FieldChoice, Choices: []Choice{
				{"1+0", "1+0"}, {"1+1", "1+1"}, {"2+1", "2+1"}, {"3+1", "3+1"}, {"4+1", "4+1"}, {"5+", "5+ Oda"},
			}},
			{Key: "bathrooms", Label: "Banyo Sayısı", Type: FieldNumber},
			floorEntry,
			{Key: "building_age", Label: "Bina Yaşı", Type: FieldNumber, Unit: "yıl"},
			{Key: "heating", Label: "Isıtma", Type: FieldChoice, Choices: []Choice{
				{"kombi", "Kombi"}, {"merkezi", "Merkezi"}, {"yerden", "Yerden Isıtma"}, {"klima", "Klima"},
			}},
			{Key: "furnished", Label: "Eşyalı", Type: FieldBool},
			{Key: "in_site", Label: "Site İçerisinde", Type: FieldBool},
			parkingEntry,
		},
	},
	CategoryLand: {
		kind: KindProperty,
		entries: []SchemaEntry{
			{Key: "zoning", Label: "İmar Durumu", Type: FieldChoice, Required: true, Choices: []Choice{
				{"konut", "Konut İmarlı"}, {"ticari", "Ticari İmarlı"}, {"villa", "Villa İmarlı"},
				{"tarla", "Tarla"}, {"sanayi", "Sanayi"},
			}},
			{Key: "parcel_no", Label: "Parsel No", Type: FieldText},
			{Key: "block_no", Label: "Ada No", Type: FieldText},
			{Key: "floor_area_ratio", Label: "Emsal", Type: FieldNumber},
			{Key: "title_deed", Label: "Tapu Durumu", Type: FieldChoice, Choices: []Choice{
				{"mustakil", "Müstakil Tapulu"}, {"hisseli", "Hisseli Tapulu"},
			}},
		},
	},
	CategoryCommercial: {
		kind: KindProperty,
		entries: []SchemaEntry{
			{Key: "usage", Label: "Kullanım", Type: FieldChoice, Choices: []Choice{
				{"ofis", "Ofis"}, {"dukkan", "Dükkan"}, {"depo", "Depo"}, {"plaza", "Plaza Katı"},
			}},
			floorEntry,
			{Key: "ceiling_height", Label: "Tavan Yüksekliği", Type: FieldNumber, Unit: "m"},
			parkingEntry,
		},
	},
	CategoryPool: {
		kind: KindProject,
		entries: []SchemaEntry{
			{Key: "pool_type", Label: "Havuz Tipi", Type: FieldChoice, Choices: []Choice{
				{"overflow", "Taşmalı"}, {"skimmer", "Skimmerli"}, {"infinity", "Sonsuzluk"},
			}},
			{Key: "length", Label: "Uzunluk", Type: FieldNumber, Unit: "m"},
			{Key: "width", Label: "Genişlik", Type: FieldNumber, Unit: "m"},
			{Key: "depth", Label: "Derinlik", Type: FieldNumber, Unit: "cm"},
			{Key: "heated", Label: "Isıtmalı", Type: FieldBool},
			{Key: "lighting", Label: "Aydınlatma", Type: FieldBool},
		},
	},
	CategoryLandscape: {
		kind: KindProject,
		entries: []SchemaEntry{
			{Key: "garden_area", Label: "Bahçe Alanı", Type: FieldNumber, Unit: "m²"},
			{Key: "irrigation", Label: "Otomatik Sulama", Type: FieldBool},
			{Key: "plant_count", Label: "Bitki Sayısı", Type: FieldNumber},
			{Key: "style", Label: "Tarz", Type: FieldText},
		},
	},
	CategoryInterior: {
		kind: KindProject,
		entries: []SchemaEntry{
			{Key: "room_count", Label: "Tasarlanan Mekan", Type: FieldNumber},
			{Key: "design_style", Label: "Tasarım Dili", Type: FieldChoice, Choices: []Choice{
				{"modern", "Modern"}, {"klasik", "Klasik"}, {"minimal", "Minimal"}, {"endustriyel", "Endüstriyel"},
			}},
			{Key: "furniture_included", Label: "Mobilya Dahil", Type: FieldBool},
		},
	},
}

// entriesByKey 跨分类的 key 索引，同名 key 在所有分类中定义必须一致
var entriesByKey = map[string]SchemaEntry{}

func init() {
	for _, c := range categoryOrder {
		for _, e := range registry[c].entries {
			if prev, ok := entriesByKey[e.Key]; ok && (prev.Type != e.Type || prev.Unit != e.Unit) {
				panic(fmt.Sprintf("editor: attribute %q declared twice with different types", e.Key))
			}
			entriesByKey[e.Key] = e
		}
	}
}

// AttributesFor 返回分类的有序属性描述，未知分类返回空
func AttributesFor(category Category) []SchemaEntry {
	s, ok := registry[category]
	if !ok {
		return []SchemaEntry{}
	}
	out := make([]SchemaEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// EntryFor 查找分类下的某个属性
func EntryFor(category Category, key string) (SchemaEntry, bool) {
	for _, e := range registry[category].entries {
		if e.Key == key {
			return e, true
		}
	}
	return SchemaEntry{}, false
}

// Categories 全部分类，按展示顺序
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// CategoriesOf 某一类型下的分类
func CategoriesOf(kind ListingKind) []Category {
	var out []Category
	for _, c := range categoryOrder {
		if registry[c].kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// KindOf 分类所属类型
func KindOf(category Category) (ListingKind, bool) {
	s, ok := registry[category]
	return s.kind, ok
}

func IsValidCategory(category Category) bool {
	_, ok := registry[category]
	return ok
}

// FormatValue 把属性原始值渲染为展示文本，空值返回 false 以便跳过该行
func FormatValue(key string, raw any) (string, bool) {
	if raw == nil {
		return "", false
	}
	entry, known := entriesByKey[key]
	if !known {
		s := strings.TrimSpace(fmt.Sprint(raw))
		return s, s != ""
	}

	switch entry.Type {
	case FieldNumber:
		n, ok, err := toNumber(raw)
		if err != nil || !ok {
			return "", false
		}
		s := formatNumber(n)
		if entry.Unit != "" {
			s += " " + entry.Unit
		}
		return s, true
	case FieldBool:
		b, ok, err := toBool(raw)
		if err != nil || !ok {
			return "", false
		}
		if b {
			return "Var", true
		}
		return "Yok", true
	case FieldChoice:
		s, ok := raw.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return "", false
		}
		if label, found := entry.choiceLabel(s); found {
			return label, true
		}
		return s, true
	default:
		s, ok := raw.(string)
		if !ok {
			s = fmt.Sprint(raw)
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
