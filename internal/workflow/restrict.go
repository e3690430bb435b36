package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Euphemus333/arabot/internal/gateway"
	"github.com/Euphemus333/arabot/internal/logger"
)

// Restrict places a member into a restricted section. The target only
// needs to exist as a platform user: members who already left the guild
// get a placeholder record and are restricted for when they return.
//
// Only user/moderator resolution and store failures abort the operation.
// Once the active-record guard has passed, directory side effects are
// best-effort: a failure is reported on the Outcome rather than rolled
// back, since there is no transaction spanning the store and the guild.
func (e *Engine) Restrict(ctx context.Context, memberID, moderatorID, reason string, tolerance bool) (Outcome, error) {
	var out Outcome

	user, err := e.directory.ResolveUser(ctx, memberID)
	if err != nil {
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

	// Fast-path idempotency guard. The unique-active-record index in the
	// store is the real protection against a racing double restrict.
	active, err := e.store.HasActiveRestriction(memberID)
	if err != nil {
		return out, fmt.Errorf("checking active restriction for %s: %w", memberID, err)
	}
	if active {
		out.Message = fmt.Sprintf("%s is already restricted!", mention(memberID))
		out.Success = true
		out.NoOp = true
		return out, nil
	}

	member, err := e.directory.ResolveMember(ctx, memberID)
	if err != nil && !errors.Is(err, gateway.ErrNotFound) {
		return out, fmt.Errorf("resolving member %s: %w", memberID, err)
	}
	present := err == nil

	var section int
	if present {
		// The store said not restricted but the guild may disagree, for
		// example after a manual role grant. Trust the roles and no-op
		// rather than stacking a second restriction.
		if member.HasAnyRole(e.ids.Roles.Restricted...) {
			out.Message = fmt.Sprintf("%s is already restricted!", mention(memberID))
			out.Success = true
			out.NoOp = true
			return out, nil
		}

		if err := e.store.EnsureMember(memberID); err != nil {
			return out, fmt.Errorf("ensuring member %s in store: %w", memberID, err)
		}
		if err := e.store.SaveRoleSnapshot(memberID, member.Roles); err != nil {
			return out, fmt.Errorf("snapshotting roles for %s: %w", memberID, err)
		}

		verified := member.HasRole(e.ids.Roles.Verified)
		section = SelectSection(tolerance, verified)

		if err := e.directory.GrantRole(ctx, memberID, e.ids.Roles.Restricted[section-1]); err != nil {
			logger.Warningf("Restrict: could not grant section %d role to %s: %v", section, memberID, err)
			out.degrade("could not grant the section role")
		}

		if verified {
			e.provisionResourcePair(ctx, member, &out)
		}

		if len(e.ids.Roles.BlockedWhileRestricted) > 0 {
			if err := e.directory.RevokeRoles(ctx, memberID, e.ids.Roles.BlockedWhileRestricted); err != nil {
				logger.Warningf("Restrict: could not remove blocked roles from %s: %v", memberID, err)
				out.degrade("could not remove roles incompatible with restriction")
			}
		}

		if member.VoiceChannelID != "" {
			if err := e.directory.DisconnectVoice(ctx, memberID); err != nil {
				logger.Warningf("Restrict: could not disconnect %s from voice: %v", memberID, err)
				out.degrade("could not disconnect the member from voice")
			}
		}
	} else {
		// The member left the guild. Record a placeholder so the
		// restriction takes effect when they return, and pick the section
		// from whatever role snapshot we hold for them.
		if err := e.store.CreatePlaceholder(memberID); err != nil {
			return out, fmt.Errorf("creating placeholder for %s: %w", memberID, err)
		}
		snapshot, err := e.store.FetchRoleSnapshot(memberID)
		if err != nil {
			return out, fmt.Errorf("fetching role snapshot for %s: %w", memberID, err)
		}
		verified := false
		for _, roleID := range snapshot {
			if roleID == e.ids.Roles.Verified {
				verified = true
				break
			}
		}
		section = SelectSection(tolerance, verified)
	}

	if _, err := e.store.CreateRestriction(memberID, moderatorID, reason, section); err != nil {
		return out, fmt.Errorf("creating restriction for %s: %w", memberID, err)
	}

	out.Section = section
	out.Success = true
	out.Message = fmt.Sprintf("Restricted %s", mention(memberID))

	// DM the reason. Delivery is never guaranteed (closed DMs), so a
	// failure is swallowed entirely.
	dm := gateway.Notice{
		Title: "You've been restricted!",
		Color: restrictColor,
		Fields: []gateway.Field{
			{Name: "Reason", Value: reason},
		},
	}
	if err := e.notifier.SendDirectMessage(ctx, memberID, dm); err != nil {
		logger.Debugf("Restrict: could not DM %s: %v", memberID, err)
	}

	e.logRestriction(ctx, user, memberID, moderatorID, reason, &out)

	return out, nil
}

// provisionResourcePair creates the isolated voice and text channels for a
// verified member. The pair is recorded in the store and mirrored in the
// text channel's topic. A half-created pair is never deleted here: losing
// the audit linkage is worse than leaving an extra channel for teardown.
func (e *Engine) provisionResourcePair(ctx context.Context, member *gateway.Member, out *Outcome) {
	categoryID := e.ids.Categories.Restricted

	voiceChannel, err := e.directory.CreateChannel(ctx, gateway.ChannelSpec{
		Name:     "Restricted Voice Channel",
		Kind:     gateway.ChannelVoice,
		ParentID: categoryID,
		Overwrites: []gateway.PermissionOverwrite{
			{TargetID: e.ids.Roles.Everyone, Kind: gateway.OverwriteRole, Deny: gateway.PermViewChannel},
			{TargetID: member.ID, Kind: gateway.OverwriteMember, Allow: gateway.PermViewChannel},
			{TargetID: e.ids.Roles.RestrictedStaff, Kind: gateway.OverwriteRole,
				Allow: gateway.PermSendMessages | gateway.PermViewChannel | gateway.PermConnect | gateway.PermMuteMembers},
		},
	})
	if err != nil {
		logger.Warningf("Restrict: could not create voice channel for %s: %v", member.ID, err)
		out.degrade("could not create the restricted voice channel")
		return
	}

	textSpec := gateway.ChannelSpec{
		Name:     textChannelName(member.Username),
		Kind:     gateway.ChannelText,
		ParentID: categoryID,
		Topic:    pairTopic(member.ID, voiceChannel.ID),
		Overwrites: []gateway.PermissionOverwrite{
			{TargetID: e.ids.Roles.Everyone, Kind: gateway.OverwriteRole,
				Allow: gateway.PermReadMessageHistory, Deny: gateway.PermViewChannel},
			{TargetID: member.ID, Kind: gateway.OverwriteMember, Allow: gateway.PermViewChannel},
			{TargetID: e.ids.Roles.RestrictedStaff, Kind: gateway.OverwriteRole,
				Allow: gateway.PermSendMessages | gateway.PermViewChannel},
		},
	}

	// Some usernames are rejected as channel names; fall back to the
	// numeric ID form. The topic keeps the true member ID either way.
	bannedName := false
	textChannel, err := e.directory.CreateChannel(ctx, textSpec)
	if err != nil {
		bannedName = true
		textSpec.Name = textChannelName(member.ID)
		textChannel, err = e.directory.CreateChannel(ctx, textSpec)
		if err != nil {
			logger.Warningf("Restrict: could not create text channel for %s: %v", member.ID, err)
			out.degrade("could not create the restricted text channel")
			return
		}
	}

	if err := e.store.SaveResourcePair(member.ID, textChannel.ID, voiceChannel.ID); err != nil {
		// The topic still links the pair, so teardown will find it.
		logger.Warningf("Restrict: could not record resource pair for %s: %v", member.ID, err)
	}

	voiceName := voiceChannelName(member.Username)
	if bannedName {
		voiceName = voiceChannelName(member.ID)
	}
	if err := e.directory.RenameChannel(ctx, voiceChannel.ID, voiceName); err != nil {
		logger.Warningf("Restrict: could not rename voice channel %s: %v", voiceChannel.ID, err)
	}

	welcome := gateway.Notice{
		Title:       fmt.Sprintf("Restricted channel for %s", member.Username),
		Description: mention(member.ID),
		Color:       restrictColor,
		Fields: []gateway.Field{
			{Name: "Joined:", Value: member.JoinedAt.Format(time.RFC1123), Inline: true},
			{Name: "Created:", Value: member.CreatedAt.Format(time.RFC1123), Inline: true},
		},
	}
	if err := e.notifier.SendChannelMessage(ctx, textChannel.ID, welcome); err != nil {
		logger.Warningf("Restrict: could not post welcome message in %s: %v", textChannel.ID, err)
	}

	out.PairCreated = true
}

// logRestriction writes the audit entry. A missing or unwritable log
// channel degrades the outcome message but never fails the operation: the
// restriction is already committed and the database row is the real audit
// trail.
func (e *Engine) logRestriction(ctx context.Context, user *gateway.User, memberID, moderatorID, reason string, out *Outcome) {
	logChannelID := e.ids.Channels.RestrictedLogs
	if logChannelID == "" {
		logger.Errorf("Restrict: no log channel configured")
		out.Message = fmt.Sprintf(
			"Restricted %s but could not find the log channel. This has been logged to the database.",
			mention(memberID))
		return
	}

	entry := gateway.Notice{
		Title: fmt.Sprintf("Restricted %s", user.Username),
		Color: restrictColor,
		Fields: []gateway.Field{
			{Name: "User", Value: mention(memberID), Inline: true},
			{Name: "Moderator", Value: mention(moderatorID), Inline: true},
			{Name: "Reason", Value: reason},
		},
		Footer: fmt.Sprintf("ID: %s", memberID),
	}

	err := e.notifier.SendChannelMessage(ctx, logChannelID, entry)
	switch {
	case err == nil:
		out.AuditLogged = true
	case errors.Is(err, gateway.ErrPermission):
		logger.Errorf("Restrict: no permission to send in the logs channel")
		out.Message = fmt.Sprintf(
			"%s has been restricted. This hasn't been logged in a text channel as the bot does not have permission to send logs!",
			mention(memberID))
	default:
		logger.Errorf("Restrict: could not write to log channel: %v", err)
		out.Message = fmt.Sprintf(
			"Restricted %s but could not find the log channel. This has been logged to the database.",
			mention(memberID))
	}
}
