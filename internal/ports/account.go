package ports

import "context"

// AccountPort reads and updates the platform account behind a player.
type AccountPort interface {
	// DisplayName returns the account's display name, or its username when unset.
	DisplayName(ctx context.Context, userID string) (string, error)
	// UpdateProfile updates account profile fields for the given user.
	// userID identifies the account to update; username/displayName are applied as provided.
	// Returns an error if the profile update fails.
	UpdateProfile(ctx context.Context, userID, username, displayName string) error
}
