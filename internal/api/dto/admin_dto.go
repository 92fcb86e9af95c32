package dto

type LoginDTO struct {
	Username string `json:"username" binding:"required" validate:"min=3,max=64"`
	Password string `json:"password" binding:"required" validate:"min=6,max=128"`
}

type TokenDTO struct {
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expires_at"`
	Roles     []string `json:"roles"`
}
