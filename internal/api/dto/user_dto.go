package dto

import "github.com/farconnect/attestation-service/internal/domain"

// UserUpsertRequest creates or updates a profile by FID.
type UserUpsertRequest struct {
	FID            int64   `json:"fid"`
	Username       *string `json:"username,omitempty"`
	DisplayName    *string `json:"display_name,omitempty"`
	PfpURL         *string `json:"pfp_url,omitempty"`
	ZupassVerified *bool   `json:"zupass_verified,omitempty"`
}

// UserView is the profile as returned to clients.
type UserView struct {
	ID             string  `json:"id"`
	FID            int64   `json:"fid"`
	Username       string  `json:"username"`
	DisplayName    string  `json:"display_name"`
	PfpURL         *string `json:"pfp_url,omitempty"`
	ZupassVerified bool    `json:"zupass_verified"`
}

// NewUserView maps the domain user to its wire shape.
func NewUserView(user *domain.User) UserView {
	return UserView{
		ID:             user.ID,
		FID:            user.FID,
		Username:       user.Username,
		DisplayName:    user.DisplayName,
		PfpURL:         user.PfpURL,
		ZupassVerified: user.ZupassVerified,
	}
}
