package editor

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// CategoryTag 属性记录中保存分类的 key
const CategoryTag = "category"

// AttributeRecord 持久化的结构化属性，始终带 category 标签
type AttributeRecord map[string]any

// Category 记录中的分类标签
func (r AttributeRecord) Category() Category {
	if r == nil {
		return ""
	}
	s, _ := r[CategoryTag].(string)
	return Category(s)
}

// AttributeForm 当前分类下的属性编辑模型
type AttributeForm struct {
	category Category
	values   map[string]any
}

func NewAttributeForm(category Category) *AttributeForm {
	return &AttributeForm{category: category, values: map[string]any{}}
}

// Load 从持久化记录恢复表单，去掉 category 标签，丢弃不属于该分类或无法解析的值
func (f *AttributeForm) Load(category Category, record AttributeRecord) {
	f.category = category
	f.values = map[string]any{}
	for k, v := range record {
		if k == CategoryTag {
			continue
		}
		entry, ok := EntryFor(category, k)
		if !ok {
			continue
		}
		norm, empty, err := normalize(entry, v)
		if err != nil || empty {
			continue
		}
		f.values[k] = norm
	}
}

func (f *AttributeForm) Category() Category {
	return f.category
}

// SetCategory 切换分类并清空全部属性
func (f *AttributeForm) SetCategory(category Category) {
	f.category = category
	f.values = map[string]any{}
}

// SetValue 按分类声明的类型写入属性，空值表示删除
func (f *AttributeForm) SetValue(key string, value any) error {
	entry, ok := EntryFor(f.category, key)
	if !ok {
		return fmt.Errorf("%w: %q for category %q", ErrUnknownAttribute, key, f.category)
	}
	norm, empty, err := normalize(entry, value)
	if err != nil {
		return err
	}
	if empty {
		delete(f.values, key)
		return nil
	}
	f.values[key] = norm
	return nil
}

func (f *AttributeForm) Value(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Values 属性拷贝，不含 category 标签
func (f *AttributeForm) Values() map[string]any {
	out := make(map[string]any, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Tagged 属性加上 category 标签，属性为空时也返回
func (f *AttributeForm) Tagged() AttributeRecord {
	rec := AttributeRecord{CategoryTag: string(f.category)}
	for k, v := range f.values {
		rec[k] = v
	}
	return rec
}

// ToRecord 待持久化的记录，没有任何属性时返回 nil
func (f *AttributeForm) ToRecord() AttributeRecord {
	if len(f.values) == 0 {
		return nil
	}
	return f.Tagged()
}

// Missing 缺失的必填属性，按 schema 顺序
func (f *AttributeForm) Missing() []string {
	var missing []string
	for _, e := range registry[f.category].entries {
		if !e.Required {
			continue
		}
		if _, ok := f.values[e.Key]; !ok {
			missing = append(missing, e.Key)
		}
	}
	return missing
}

// Keys 已填写的属性 key，排序后返回
func (f *AttributeForm) Keys() []string {
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalize(entry SchemaEntry, value any) (any, bool, error) {
	invalid := func() error {
		return &ValidationError{Fields: []string{entry.Key}}
	}

	switch entry.Type {
	case FieldNumber:
		n, ok, err := toNumber(value)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, false, invalid()
		}
		return n, !ok, nil
	case FieldBool:
		b, ok, err := toBool(value)
		if err != nil {
			return nil, false, invalid()
		}
		return b, !ok, nil
	case FieldChoice:
		if value == nil {
			return nil, true, nil
		}
		s, ok := value.(string)
		if !ok {
			return nil, false, invalid()
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, true, nil
		}
		if _, found := entry.choiceLabel(s); !found {
			return nil, false, invalid()
		}
		return s, false, nil
	default:
		if value == nil {
			return nil, true, nil
		}
		s, ok := value.(string)
		if !ok {
			return nil, false, invalid()
		}
		s = strings.TrimSpace(s)
		return s, s == "", nil
	}
}

// toNumber 返回 (值, 是否有值, 错误)
func toNumber(value any) (float64, bool, error) {
	switch v := value.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return v, true, nil
	case float32:
		return float64(v), true, nil
	case int:
		return float64(v), true, nil
	case int32:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case uint:
		return float64(v), true, nil
	case uint64:
		return float64(v), true, nil
	case json.Number:
		n, err := v.Float64()
		return n, err == nil, err
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false, nil
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return 0, false, err
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported number type %T", value)
	}
}

func toBool(value any) (bool, bool, error) {
	switch v := value.(type) {
	case nil:
		return false, false, nil
	case bool:
		return v, true, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "":
			return false, false, nil
		case "true", "on", "1", "yes", "var":
			return true, true, nil
		case "false", "off", "0", "no", "yok":
			return false, true, nil
		}
		return false, false, fmt.Errorf("invalid bool %q", v)
	default:
		return false, false, fmt.Errorf("unsupported bool type %T", value)
	}
}
