package account

import "context"

// UpstreamUser is the minimal identity the fantasy platform returns for a username.
type UpstreamUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Directory looks users up on the upstream platform.
type Directory interface {
	LookupUser(ctx context.Context, username string) (UpstreamUser, error)
}
