package kafka

import (
	"fmt"
	"strconv"
	"time"
)

// Canal 变更类型
const (
	INSERT = "INSERT"
	UPDATE = "UPDATE"
	DELETE = "DELETE"
)

// canalTimeLayout MySQL datetime 在 Canal 消息中的格式
const canalTimeLayout = "2006-01-02 15:04:05"

// CanalMessage 定义了 Canal 推送到 Kafka 的 JSON 数据结构
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`

	// Data 变更后的行，DELETE 时为被删除的行
	Data []map[string]any `json:"data"`

	// Old 只包含发生变化的列
	Old []map[string]any `json:"old"`
}

// 以下函数读取 Canal 行中的列值，Canal 把所有列都编码成字符串，NULL 为 nil

func StrToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func StrToUint64(v any) uint64 {
	n, _ := strconv.ParseUint(StrToString(v), 10, 64)
	return n
}

func StrToInt(v any) int {
	n, _ := strconv.Atoi(StrToString(v))
	return n
}

func StrToFloat(v any) float64 {
	f, _ := strconv.ParseFloat(StrToString(v), 64)
	return f
}

func StrToBool(v any) bool {
	s := StrToString(v)
	return s == "1" || s == "true"
}

func StrToDateTime(v any) time.Time {
	t, err := time.ParseInLocation(canalTimeLayout, StrToString(v), time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
