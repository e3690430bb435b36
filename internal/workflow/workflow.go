// Package workflow implements the restriction lifecycle: moving a member
// into one of five escalating restricted sections, provisioning the
// isolated channel pair for verified members, and reversing all of it when
// the member is cleared. The package orchestrates the moderation store and
// the guild directory; it owns no platform glue and no persistence of its
// own.
package workflow

import (
	"errors"

	"github.com/Euphemus333/arabot/internal/config"
	"github.com/Euphemus333/arabot/internal/gateway"
	"github.com/Euphemus333/arabot/internal/models"
)

var (
	// ErrUserResolution means the target could not be resolved as a
	// platform user at all. Restriction cannot proceed without it.
	ErrUserResolution = errors.New("could not resolve user")

	// ErrModeratorResolution means the acting moderator could not be
	// resolved on the guild.
	ErrModeratorResolution = errors.New("could not resolve moderator")

	// ErrMemberNotPresent means the target has left the guild, so there is
	// nothing to unrestrict; their record stays until they return.
	ErrMemberNotPresent = errors.New("member is not on the server")
)

// Store is the persistent moderation record store the workflows mutate.
// Implemented by service.ModerationStore; tests supply a fake.
type Store interface {
	EnsureMember(memberID string) error
	HasActiveRestriction(memberID string) (bool, error)
	CreateRestriction(memberID, moderatorID, reason string, section int) (*models.RestrictionRecord, error)
	CloseRestriction(memberID, moderatorID string) error
	CloseLegacyRestriction(memberID, moderatorID string, section int) error
	CreatePlaceholder(memberID string) error
	SaveRoleSnapshot(memberID string, roleIDs []string) error
	FetchRoleSnapshot(memberID string) ([]string, error)
	SaveResourcePair(memberID, textChannelID, voiceChannelID string) error
	FetchResourcePairs(memberID string) ([]*models.ResourcePair, error)
	DeleteResourcePairs(memberID string) error
}

// Outcome is the structured result of a workflow invocation. The command
// layer formats it for the end user.
//
// A failed best-effort side effect after the state transition has committed
// leaves Success true and is reported through Message, AuditLogged and
// Degraded instead ("degraded success").
type Outcome struct {
	Message string
	Success bool
	// NoOp is set when the guard fired: restricting an already-restricted
	// member, or unrestricting a member who is not restricted.
	NoOp    bool
	Section int
	// PairCreated is set when an isolated text/voice channel pair was
	// provisioned for a verified member.
	PairCreated bool
	// AuditLogged reports whether the audit entry reached the log channel.
	AuditLogged bool
	// InvokedChannelRemoved is set when teardown deleted the channel the
	// command was invoked from, so the caller must not reply there.
	InvokedChannelRemoved bool
	// Degraded lists side effects that failed after the state transition
	// committed.
	Degraded []string
}

func (o *Outcome) degrade(note string) {
	o.Degraded = append(o.Degraded, note)
}

// Engine runs the restriction and unrestriction workflows against a store,
// a guild directory and a notification sink.
type Engine struct {
	store     Store
	directory gateway.Directory
	notifier  gateway.Notifier
	ids       config.IdentifiersConfig
}

// NewEngine creates a workflow engine.
func NewEngine(store Store, directory gateway.Directory, notifier gateway.Notifier, ids config.IdentifiersConfig) *Engine {
	return &Engine{
		store:     store,
		directory: directory,
		notifier:  notifier,
		ids:       ids,
	}
}

func mention(id string) string {
	return "<@" + id + ">"
}

// embed colors carried over from the previous bot
const (
	restrictColor   = 0xFF6700
	unrestrictColor = 0x28A745
)
