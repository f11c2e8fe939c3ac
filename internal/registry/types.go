// Package registry implements the token registry: issuing opaque tokens bound
// to a destination channel and validating them at quote time.
package registry

// Record binds an opaque token to its destination scope and owning user.
// The token string is also the storage key.
type Record struct {
	Token     string `json:"token"`
	GuildID   string `json:"guildID"`
	ChannelID string `json:"channelID"`
	UserID    string `json:"userID"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"createdAt"` // milliseconds since epoch; 0 = unknown (legacy records)
}

// Complete reports whether all fields required for registration are set.
func (r *Record) Complete() bool {
	return r.Token != "" &&
		r.GuildID != "" &&
		r.ChannelID != "" &&
		r.UserID != "" &&
		r.Username != "" &&
		r.CreatedAt != 0
}
