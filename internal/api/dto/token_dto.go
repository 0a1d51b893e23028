package dto

// TokenRequest asks for a realtime trust token.
type TokenRequest struct {
	FID int64 `json:"fid"`
}

// TokenResponse returns the signed token and its lifetime in seconds.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}
