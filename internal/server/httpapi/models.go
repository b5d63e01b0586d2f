package httpapi

type SignupRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type SignupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
}

type MeResponse struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	StarCount int    `json:"star_count"`
}

type AdminResponse struct {
	Message string `json:"message"`
	Admin   string `json:"admin"`
}

type ProgressResponse struct {
	StarCount int `json:"star_count"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
