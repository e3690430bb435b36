// Package gateway defines the collaborator interfaces the restriction
// workflows depend on: the guild directory (members, roles, channels) and
// the notification sink (direct messages, channel posts). Both are remote
// services that may be slow or unavailable; implementations classify
// failures into the error kinds below so the workflows can tell absence
// from outage.
package gateway

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means the entity does not exist on the platform.
	ErrNotFound = errors.New("gateway: not found")

	// ErrUnavailable means the platform could not be reached or returned a
	// transient failure.
	ErrUnavailable = errors.New("gateway: unavailable")

	// ErrPermission means the bot lacks the rights for the operation.
	ErrPermission = errors.New("gateway: missing permission")
)

// User is a platform-level identity, which exists independently of guild
// membership.
type User struct {
	ID       string
	Username string
}

// Member is a user resolved on the guild, with their current role set and
// voice state.
type Member struct {
	ID             string
	Username       string
	Roles          []string
	VoiceChannelID string
	JoinedAt       time.Time
	CreatedAt      time.Time
}

// HasRole reports whether the member holds the given role.
func (m *Member) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the member holds at least one of the roles.
func (m *Member) HasAnyRole(roleIDs ...string) bool {
	for _, roleID := range roleIDs {
		if m.HasRole(roleID) {
			return true
		}
	}
	return false
}

// Role is a guild role.
type Role struct {
	ID   string
	Name string
}

// ChannelKind distinguishes the channel types the workflows care about.
type ChannelKind int

const (
	ChannelText ChannelKind = iota
	ChannelVoice
	ChannelCategory
)

// Channel is a guild channel.
type Channel struct {
	ID       string
	Name     string
	Kind     ChannelKind
	ParentID string
	Topic    string
}

// OverwriteKind distinguishes role and member permission overwrites.
type OverwriteKind int

const (
	OverwriteRole OverwriteKind = iota
	OverwriteMember
)

// PermissionOverwrite scopes channel access for a role or member.
type PermissionOverwrite struct {
	TargetID string
	Kind     OverwriteKind
	Allow    int64
	Deny     int64
}

// Permission bits used in overwrites, mirroring the platform's values.
const (
	PermViewChannel        int64 = 1 << 10
	PermSendMessages       int64 = 1 << 11
	PermReadMessageHistory int64 = 1 << 16
	PermConnect            int64 = 1 << 20
	PermMuteMembers        int64 = 1 << 22
)

// ChannelSpec describes a channel to create.
type ChannelSpec struct {
	Name       string
	Kind       ChannelKind
	ParentID   string
	Topic      string
	Overwrites []PermissionOverwrite
}

// Directory resolves and mutates guild state. Every call may fail with one
// of the gateway error kinds; ErrNotFound on a resolve is a legitimate
// outcome (the member may have left), not a failure of the gateway.
type Directory interface {
	ResolveUser(ctx context.Context, userID string) (*User, error)
	ResolveMember(ctx context.Context, userID string) (*Member, error)
	ResolveRole(ctx context.Context, roleID string) (*Role, error)

	CreateChannel(ctx context.Context, spec ChannelSpec) (*Channel, error)
	RenameChannel(ctx context.Context, channelID, name string) error
	DeleteChannel(ctx context.Context, channelID string) error
	Channel(ctx context.Context, channelID string) (*Channel, error)
	ChannelsInCategory(ctx context.Context, categoryID string) ([]*Channel, error)

	GrantRole(ctx context.Context, memberID, roleID string) error
	RevokeRoles(ctx context.Context, memberID string, roleIDs []string) error
	DisconnectVoice(ctx context.Context, memberID string) error
}

// Field is a labelled value inside a Notice.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Notice is a structured message delivered by the Notifier. The adapter
// decides how to render it (the discord implementation builds an embed).
type Notice struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
	Footer      string
}

// Notifier delivers direct notices and channel posts. Both operations are
// best-effort from the workflows' point of view; failures never roll back
// a committed state transition.
type Notifier interface {
	SendDirectMessage(ctx context.Context, userID string, notice Notice) error
	SendChannelMessage(ctx context.Context, channelID string, notice Notice) error
}
