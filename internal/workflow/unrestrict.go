package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/Euphemus333/arabot/internal/gateway"
	"github.com/Euphemus333/arabot/internal/logger"
	"github.com/Euphemus333/arabot/internal/storage"
)

// Unrestrict clears a member's restriction: restores their snapshotted
// roles (or grants the fallback cleared role for restrictions applied by
// the previous bot), removes the section roles, tears down any resource
// pair, and closes the store record.
//
// invokingChannelID, when non-empty, identifies the channel the command
// was run from; if teardown deletes that channel the Outcome flags it so
// the caller does not reply into a channel that no longer exists.
//
// A member who has left the guild cannot be unrestricted; their record
// stays until they return.
func (e *Engine) Unrestrict(ctx context.Context, memberID, moderatorID, invokingChannelID string) (Outcome, error) {
	var out Outcome

	if _, err := e.directory.ResolveUser(ctx, memberID); err != nil {
		out.Message = "Error fetching user"
		return out, fmt.Errorf("%w: %v", ErrUserResolution, err)
	}

	if _, err := e.directory.ResolveMember(ctx, moderatorID); err != nil {
		out.Message = "Error fetching mod"
		return out, fmt.Errorf("%w: %v", ErrModeratorResolution, err)
	}
	if err := e.store.EnsureMember(moderatorID); err != nil {
		return out, fmt.Errorf("ensuring moderator %s in store: %w", moderatorID, err)
	}

	member, err := e.directory.ResolveMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			out.Message = "Can't unrestrict the user as they are not on this server"
			return out, ErrMemberNotPresent
		}
		return out, fmt.Errorf("resolving member %s: %w", memberID, err)
	}
	if err := e.store.EnsureMember(memberID); err != nil {
		return out, fmt.Errorf("ensuring member %s in store: %w", memberID, err)
	}

	// Guard: the guild's role state decides whether there is anything to
	// undo. A record without a section role means someone already cleaned
	// up manually.
	if !member.HasAnyRole(e.ids.Roles.Restricted...) {
		out.Message = fmt.Sprintf("%s is not restricted!", mention(memberID))
		out.Success = true
		out.NoOp = true
		return out, nil
	}

	active, err := e.store.HasActiveRestriction(memberID)
	if err != nil {
		return out, fmt.Errorf("checking active restriction for %s: %w", memberID, err)
	}

	if active {
		snapshot, err := e.store.FetchRoleSnapshot(memberID)
		if err != nil {
			return out, fmt.Errorf("fetching role snapshot for %s: %w", memberID, err)
		}
		for _, roleID := range snapshot {
			if err := e.directory.GrantRole(ctx, memberID, roleID); err != nil {
				logger.Warningf("Unrestrict: could not restore role %s to %s: %v", roleID, memberID, err)
				out.degrade("could not restore all previous roles")
			}
		}

		if err := e.store.CloseRestriction(memberID, moderatorID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Raced with another unrestrict; the record is gone either way.
				logger.Warningf("Unrestrict: active record for %s vanished before close", memberID)
			} else {
				return out, fmt.Errorf("closing restriction for %s: %w", memberID, err)
			}
		}
		out.Section = sectionFromRoles(member.HasRole, e.ids.Roles.Restricted)
	} else {
		// Restriction applied by the previous bot: no record and no
		// snapshot to restore. Infer the tier from the role held and grant
		// the single fallback cleared role instead.
		section := sectionFromRoles(member.HasRole, e.ids.Roles.Restricted)

		if err := e.directory.GrantRole(ctx, memberID, e.ids.Roles.Cleared); err != nil {
			logger.Warningf("Unrestrict: could not grant cleared role to %s: %v", memberID, err)
			out.degrade("could not grant the cleared role")
		}

		if err := e.store.CloseLegacyRestriction(memberID, moderatorID, section); err != nil {
			return out, fmt.Errorf("closing legacy restriction for %s: %w", memberID, err)
		}
		out.Section = section
	}

	if err := e.directory.RevokeRoles(ctx, memberID, e.ids.Roles.Restricted); err != nil {
		logger.Warningf("Unrestrict: could not remove section roles from %s: %v", memberID, err)
		out.degrade("could not remove the section roles")
	}

	if member.HasRole(e.ids.Roles.Verified) {
		e.teardownResourcePairs(ctx, memberID, invokingChannelID, &out)
	}

	out.Success = true
	out.Message = fmt.Sprintf("Unrestricted %s", mention(memberID))

	e.logUnrestriction(ctx, member, memberID, moderatorID, &out)

	return out, nil
}

// teardownResourcePairs deletes the member's isolated channels. Candidates
// come from the ResourcePair table and from scanning the restricted
// category for text channels whose topic links to the member (pairs made
// by the previous bot only exist in topics). A channel is deleted only if
// it is still parented under the restricted category, so a stale or
// spoofed topic can never take down an unrelated channel.
func (e *Engine) teardownResourcePairs(ctx context.Context, memberID, invokingChannelID string, out *Outcome) {
	categoryID := e.ids.Categories.Restricted

	// text channel ID -> voice channel ID ("" when unknown)
	candidates := make(map[string]string)

	pairs, err := e.store.FetchResourcePairs(memberID)
	if err != nil {
		logger.Warningf("Unrestrict: could not fetch resource pairs for %s: %v", memberID, err)
	}
	for _, pair := range pairs {
		candidates[pair.TextChannelID] = pair.VoiceChannelID
	}

	channels, err := e.directory.ChannelsInCategory(ctx, categoryID)
	if err != nil {
		logger.Warningf("Unrestrict: could not scan restricted category: %v", err)
		out.degrade("could not scan the restricted category; channels may need manual deletion")
	}
	for _, channel := range channels {
		if channel.Kind != gateway.ChannelText {
			continue
		}
		if !topicReferences(channel.Topic, memberID) {
			continue
		}
		if _, known := candidates[channel.ID]; !known {
			candidates[channel.ID] = voiceIDFromTopic(channel.Topic, memberID)
		}
	}

	for textID, voiceID := range candidates {
		if voiceID != "" {
			voiceChannel, err := e.directory.Channel(ctx, voiceID)
			if err == nil && voiceChannel.ParentID == categoryID {
				if err := e.directory.DeleteChannel(ctx, voiceID); err != nil {
					logger.Warningf("Unrestrict: could not delete voice channel %s: %v", voiceID, err)
					out.degrade("could not delete the restricted voice channel")
				}
			}
		}

		textChannel, err := e.directory.Channel(ctx, textID)
		if err != nil || textChannel.ParentID != categoryID {
			continue
		}
		if err := e.directory.DeleteChannel(ctx, textID); err != nil {
			logger.Warningf("Unrestrict: could not delete text channel %s: %v", textID, err)
			out.degrade("could not delete the restricted text channel")
			continue
		}
		if textID == invokingChannelID {
			out.InvokedChannelRemoved = true
		}
	}

	if err := e.store.DeleteResourcePairs(memberID); err != nil {
		logger.Warningf("Unrestrict: could not clear resource pair rows for %s: %v", memberID, err)
	}
}

// logUnrestriction writes the audit entry with the same degraded-success
// semantics as restriction.
func (e *Engine) logUnrestriction(ctx context.Context, member *gateway.Member, memberID, moderatorID string, out *Outcome) {
	logChannelID := e.ids.Channels.RestrictedLogs
	if logChannelID == "" {
		logger.Errorf("Unrestrict: no log channel configured")
		out.Message = fmt.Sprintf(
			"Unrestricted %s but could not find the log channel. This has been logged to the database.",
			mention(memberID))
		return
	}

	entry := gateway.Notice{
		Title: fmt.Sprintf("Unrestricted %s", member.Username),
		Color: unrestrictColor,
		Fields: []gateway.Field{
			{Name: "User", Value: mention(memberID), Inline: true},
			{Name: "Moderator", Value: mention(moderatorID), Inline: true},
		},
		Footer: fmt.Sprintf("ID: %s", memberID),
	}

	err := e.notifier.SendChannelMessage(ctx, logChannelID, entry)
	switch {
	case err == nil:
		out.AuditLogged = true
	case errors.Is(err, gateway.ErrPermission):
		logger.Errorf("Unrestrict: no permission to send in the logs channel")
		out.Message = fmt.Sprintf(
			"Unrestricted %s but this hasn't been logged in a text channel as the bot does not have permission to send logs!",
			mention(memberID))
	default:
		logger.Errorf("Unrestrict: could not write to log channel: %v", err)
		out.Message = fmt.Sprintf(
			"Unrestricted %s but could not find the log channel. This has been logged to the database.",
			mention(memberID))
	}
}
