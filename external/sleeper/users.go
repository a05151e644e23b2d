package sleeper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/riskibarqy/fantasy-companion/internal/domain/account"
)

// LookupUser resolves a username. Sleeper answers unknown usernames with a
// 200 and a null body, which surfaces here as ErrUserNotFound.
func (c *Client) LookupUser(ctx context.Context, username string) (account.UpstreamUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return account.UpstreamUser{}, fmt.Errorf("lookup user: %w", ErrUserNotFound)
	}

	doc, err := c.Get(ctx, ConnectorApp, "/user/"+url.PathEscape(username), nil)
	if err != nil {
		return account.UpstreamUser{}, fmt.Errorf("lookup user: %w", err)
	}

	userID := getString(doc.Object, "user_id")
	if userID == "" {
		return account.UpstreamUser{}, fmt.Errorf("lookup user status=%d: %w", doc.StatusCode, ErrUserNotFound)
	}

	return account.UpstreamUser{
		UserID:   userID,
		Username: firstNonEmpty(getString(doc.Object, "username"), getString(doc.Object, "display_name"), username),
	}, nil
}
