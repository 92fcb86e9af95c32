package security

import (
	"Vitrin/internal/api/config"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret     []byte
	jwtExpiration = 24 * time.Hour
	jwtIssuer     = "vitrin"
)

// InitJWT 从配置加载签名密钥
func InitJWT(cfg config.JWTConfig) error {
	if cfg.Secret == "" {
		return errors.New("jwt secret is empty")
	}
	jwtSecret = []byte(cfg.Secret)
	if cfg.ExpireHours > 0 {
		jwtExpiration = time.Duration(cfg.ExpireHours) * time.Hour
	}
	if cfg.Issuer != "" {
		jwtIssuer = cfg.Issuer
	}
	return nil
}

// TokenTTL 签发的 Token 有效期
func TokenTTL() time.Duration {
	return jwtExpiration
}

// GenerateToken 生成一个新的 JWT Token
func GenerateToken(adminID uint64, roles []string) (string, error) {
	if len(jwtSecret) == 0 {
		return "", errors.New("jwt is not initialized")
	}
	now := time.Now()
	claims := &AdminClaims{
		AdminID: adminID,
		Roles:   roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken 验证 Token 字符串并解析出 Claims
func ValidateToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	}, jwt.WithIssuer(jwtIssuer))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("token invalid or expired")
	}
	return claims, nil
}

// ExtractSignature 从 Token 字符串中提取签名，作为黑名单的 key
func ExtractSignature(tokenString string) (string, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 || parts[2] == "" {
		return "", errors.New("malformed token")
	}
	return parts[2], nil
}
