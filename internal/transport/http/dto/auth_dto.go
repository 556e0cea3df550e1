package dto

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthUserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthTokenResponse struct {
	Token        string           `json:"token"`
	ExpiresInSec int64            `json:"expires_in_sec"`
	User         AuthUserResponse `json:"user"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}
