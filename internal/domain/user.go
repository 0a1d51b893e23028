package domain

import "time"

// User is the domain model for a Farcaster-identified end user. The FID is
// assigned by the identity provider and referenced read-only here.
type User struct {
	ID             string
	FID            int64
	Username       string
	DisplayName    string
	PfpURL         *string
	ZupassVerified bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserUpsert carries profile fields for a create-or-update by FID. Nil fields
// leave the stored value untouched.
type UserUpsert struct {
	FID         int64
	Username    *string
	DisplayName *string
	PfpURL      *string
	Verified    *bool
}
