// Package discord implements the gateway collaborator interfaces on top of
// the Discord REST API.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Euphemus333/arabot/internal/gateway"
)

// Gateway adapts a discordgo session to the gateway.Directory and
// gateway.Notifier contracts for a single guild.
type Gateway struct {
	session *discordgo.Session
	guildID string
}

// NewGateway creates a Gateway bound to the given guild.
func NewGateway(session *discordgo.Session, guildID string) *Gateway {
	return &Gateway{session: session, guildID: guildID}
}

// classify maps discordgo REST failures onto the gateway error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", gateway.ErrNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", gateway.ErrPermission, err)
		}
	}
	return fmt.Errorf("%w: %v", gateway.ErrUnavailable, err)
}

// ResolveUser fetches a platform-level user by ID.
func (g *Gateway) ResolveUser(ctx context.Context, userID string) (*gateway.User, error) {
	user, err := g.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	return &gateway.User{ID: user.ID, Username: user.Username}, nil
}

// ResolveMember fetches the user's guild membership, including their role
// set and voice state.
func (g *Gateway) ResolveMember(ctx context.Context, userID string) (*gateway.Member, error) {
	member, err := g.session.GuildMember(g.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}

	createdAt, err := discordgo.SnowflakeTimestamp(userID)
	if err != nil {
		createdAt = time.Time{}
	}

	resolved := &gateway.Member{
		ID:        userID,
		Roles:     member.Roles,
		JoinedAt:  member.JoinedAt,
		CreatedAt: createdAt,
	}
	if member.User != nil {
		resolved.Username = member.User.Username
	}

	// Voice state comes from the session state cache; a cache miss just
	// means the member is not connected.
	if voiceState, err := g.session.State.VoiceState(g.guildID, userID); err == nil {
		resolved.VoiceChannelID = voiceState.ChannelID
	}

	return resolved, nil
}

// ResolveRole fetches a guild role by ID.
func (g *Gateway) ResolveRole(ctx context.Context, roleID string) (*gateway.Role, error) {
	roles, err := g.session.GuildRoles(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	for _, role := range roles {
		if role.ID == roleID {
			return &gateway.Role{ID: role.ID, Name: role.Name}, nil
		}
	}
	return nil, gateway.ErrNotFound
}

func channelType(kind gateway.ChannelKind) discordgo.ChannelType {
	switch kind {
	case gateway.ChannelVoice:
		return discordgo.ChannelTypeGuildVoice
	case gateway.ChannelCategory:
		return discordgo.ChannelTypeGuildCategory
	default:
		return discordgo.ChannelTypeGuildText
	}
}

func channelKind(t discordgo.ChannelType) gateway.ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildVoice:
		return gateway.ChannelVoice
	case discordgo.ChannelTypeGuildCategory:
		return gateway.ChannelCategory
	default:
		return gateway.ChannelText
	}
}

func toChannel(channel *discordgo.Channel) *gateway.Channel {
	return &gateway.Channel{
		ID:       channel.ID,
		Name:     channel.Name,
		Kind:     channelKind(channel.Type),
		ParentID: channel.ParentID,
		Topic:    channel.Topic,
	}
}

// CreateChannel creates a guild channel from the spec.
func (g *Gateway) CreateChannel(ctx context.Context, spec gateway.ChannelSpec) (*gateway.Channel, error) {
	overwrites := make([]*discordgo.PermissionOverwrite, 0, len(spec.Overwrites))
	for _, overwrite := range spec.Overwrites {
		kind := discordgo.PermissionOverwriteTypeRole
		if overwrite.Kind == gateway.OverwriteMember {
			kind = discordgo.PermissionOverwriteTypeMember
		}
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    overwrite.TargetID,
			Type:  kind,
			Allow: overwrite.Allow,
			Deny:  overwrite.Deny,
		})
	}

	channel, err := g.session.GuildChannelCreateComplex(g.guildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 channelType(spec.Kind),
		Topic:                spec.Topic,
		ParentID:             spec.ParentID,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	return toChannel(channel), nil
}

// RenameChannel changes a channel's name.
func (g *Gateway) RenameChannel(ctx context.Context, channelID, name string) error {
	_, err := g.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return classify(err)
}

// DeleteChannel deletes a channel.
func (g *Gateway) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := g.session.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return classify(err)
}

// Channel fetches a channel by ID.
func (g *Gateway) Channel(ctx context.Context, channelID string) (*gateway.Channel, error) {
	channel, err := g.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	return toChannel(channel), nil
}

// ChannelsInCategory returns the guild channels parented under a category.
func (g *Gateway) ChannelsInCategory(ctx context.Context, categoryID string) ([]*gateway.Channel, error) {
	channels, err := g.session.GuildChannels(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	var children []*gateway.Channel
	for _, channel := range channels {
		if channel.ParentID == categoryID {
			children = append(children, toChannel(channel))
		}
	}
	return children, nil
}

// GrantRole adds a role to a guild member.
func (g *Gateway) GrantRole(ctx context.Context, memberID, roleID string) error {
	err := g.session.GuildMemberRoleAdd(g.guildID, memberID, roleID, discordgo.WithContext(ctx))
	return classify(err)
}

// RevokeRoles removes roles from a guild member. Roles the member does not
// hold are skipped without a round trip.
func (g *Gateway) RevokeRoles(ctx context.Context, memberID string, roleIDs []string) error {
	member, err := g.session.GuildMember(g.guildID, memberID, discordgo.WithContext(ctx))
	if err != nil {
		return classify(err)
	}
	held := make(map[string]bool, len(member.Roles))
	for _, roleID := range member.Roles {
		held[roleID] = true
	}
	for _, roleID := range roleIDs {
		if !held[roleID] {
			continue
		}
		if err := g.session.GuildMemberRoleRemove(g.guildID, memberID, roleID, discordgo.WithContext(ctx)); err != nil {
			return classify(err)
		}
	}
	return nil
}

// DisconnectVoice removes the member from their current voice channel.
func (g *Gateway) DisconnectVoice(ctx context.Context, memberID string) error {
	err := g.session.GuildMemberMove(g.guildID, memberID, nil, discordgo.WithContext(ctx))
	return classify(err)
}

func toEmbed(notice gateway.Notice) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       notice.Title,
		Description: notice.Description,
		Color:       notice.Color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	for _, field := range notice.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   field.Name,
			Value:  field.Value,
			Inline: field.Inline,
		})
	}
	if notice.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: notice.Footer}
	}
	return embed
}

// SendDirectMessage delivers a notice to the user's DM channel.
func (g *Gateway) SendDirectMessage(ctx context.Context, userID string, notice gateway.Notice) error {
	channel, err := g.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return classify(err)
	}
	_, err = g.session.ChannelMessageSendEmbed(channel.ID, toEmbed(notice), discordgo.WithContext(ctx))
	return classify(err)
}

// SendChannelMessage posts a notice into a guild channel.
func (g *Gateway) SendChannelMessage(ctx context.Context, channelID string, notice gateway.Notice) error {
	_, err := g.session.ChannelMessageSendEmbed(channelID, toEmbed(notice), discordgo.WithContext(ctx))
	return classify(err)
}
