package util

import "strconv"

// StrToUint64 解析路径参数中的 ID
func StrToUint64(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
