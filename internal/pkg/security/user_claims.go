package security

import (
	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims Token 中携带的管理员身份
type AdminClaims struct {
	AdminID uint64   `json:"admin_id"`
	Roles   []string `json:"roles"`
	jwt.RegisteredClaims
}
