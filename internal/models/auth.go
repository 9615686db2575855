package models

// LoginRequest holds credentials for authenticating an account.
type LoginRequest struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	DeviceName string `json:"device_name" validate:"omitempty,max=100"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
}

// UserInfo describes the authenticated account in responses. Name mirrors the
// username; uuid/username/is_active are kept for existing clients.
type UserInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	UUID     string `json:"uuid,omitempty"`
	Username string `json:"username,omitempty"`
	IsActive bool   `json:"is_active"`
}

// LoginResponse returns the issued token pair. Token duplicates AccessToken:
// the strict contract field plus the legacy pair preserved for old clients.
type LoginResponse struct {
	Token        string   `json:"token"`
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
}

// RefreshResponse returns the replacement access token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Session is the resolved principal for one authenticated request: the
// account plus the exact token record that authenticated it. Handlers receive
// it through the request context instead of reading ambient state.
type Session struct {
	User  *User
	Token *PersonalToken
}
