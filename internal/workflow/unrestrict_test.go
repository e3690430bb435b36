package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Euphemus333/arabot/internal/gateway"
)

func TestUnrestrictNoOpWhenNotRestricted(t *testing.T) {
	engine, store, directory, _ := newTestEngine()
	directory.addMember("mod1")
	directory.addMember("m1", "somerole")

	out, err := engine.Unrestrict(context.Background(), "m1", "mod1", "")
	require.NoError(t, err)

	assert.True(t, out.NoOp)
	assert.True(t, out.Success)
	assert.Contains(t, out.Message, "not restricted")
	assert.Empty(t, store.closed)
}

func TestUnrestrictMemberNotPresent(t *testing.T) {
	engine, _, directory, _ := newTestEngine()
	directory.addMember("mod1")
	directory.addUser("m1")

	out, err := engine.Unrestrict(context.Background(), "m1", "mod1", "")
	require.ErrorIs(t, err, ErrMemberNotPresent)
	assert.Contains(t, out.Message, "not on this server")
}

func TestRestrictUnrestrictRoundTripRestoresRoles(t *testing.T) {
	engine, store, directory, _ := newTestEngine()
	directory.addMember("mod1")
	member := directory.addMember("m1", "roleA", "roleB")

	restricted, err := engine.Restrict(context.Background(), "m1", "mod1", "reason", false)
	require.NoError(t, err)
	require.True(t, restricted.Success)
	require.True(t, member.HasAnyRole(testIdentifiers().Roles.Restricted...))

	cleared, err := engine.Unrestrict(context.Background(), "m1", "mod1", "")
	require.NoError(t, err)
	require.True(t, cleared.Success)

	// exactly the pre-restriction role set, no section roles left
	assert.ElementsMatch(t, []string{"roleA", "roleB"}, member.Roles)

	assert.Empty(t, store.active)
	require.Len(t, store.closed, 1)
	assert.False(t, store.closed[0].Legacy)
	assert.Equal(t, "mod1", store.closed[0].ClosedBy)
}

func TestUnrestrictLegacyRestriction(t *testing.T) {
	// Section role held, but the store has no record: the restriction came
	// from the previous bot.
	engine, store, directory, _ := newTestEngine()
	directory.addMember("mod1")
	member := directory.addMember("m1", "sec3")

	out, err := engine.Unrestrict(context.Background(), "m1", "mod1", "")
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, 3, out.Section)
	assert.True(t, member.HasRole("nonvegan"))
	assert.False(t, member.HasAnyRole(testIdentifiers().Roles.Restricted...))

	require.Len(t, store.closed, 1)
	assert.True(t, store.closed[0].Legacy)
	assert.Equal(t, 3, store.closed[0].Section)
}

func TestUnrestrictLegacyHighestSectionWins(t *testing.T) {
	engine, store, directory, _ := newTestEngine()
	directory.addMember("mod1")
	directory.addMember("m1", "sec2", "sec4")

	out, err := engine.Unrestrict(context.Background(), "m1", "mod1", "")
	require.NoError(t, err)

	assert.Equal(t, 4, out.Section)
	assert.Equal(t, 4, store.closed[0].Section)
}

func TestUnrestrictTearsDownResourcePair(t *testing.T) {
	engine, store, directory, _ := newTestEngine()
	directory.addMember("mod1")
	directory.addMember("m1", "vegan")

	restricted, err := engine.Restrict(context.Background(), "m1", "mod1", "reason", false)
	require.NoError(t, err)
	require.True(t, restricted.PairCreated)

	pairs := store.pairs["m1"]
	require.Len(t, pairs, 1)
	textID, voiceID := pairs[0].TextChannelID, pairs[0].VoiceChannelID

	out, err := engine.Unrestrict(context.Background(), "m1", "mod1", "")
	require.NoError(t, err)
	require.True(t, out.Success)

	assert.NotContains(t, directory.channels, textID)
	assert.NotContains(t, directory.channels, voiceID)
	assert.Empty(t, store.pairs["m1"])
	assert.False(t, out.InvokedChannelRemoved)
}

func TestUnrestrictTeardownFindsLegacyPairByTopic(t *testing.T) {
	// Pair provisioned by the previous bot: only the channel topic links it.
	engine, _, directory, _ := newTestEngine()
	directory.addMember("mod1")
	directory.addMember("m1", "vegan", "sec5")

	voice := directory.addChannel("vc-legacy", gateway.ChannelVoice, "cat-restricted", "")
	directory.addChannel("tc-legacy", gateway.ChannelText, "cat-restricted", pairTopic("m1", voice.ID))

	out, err := engine.Unrestrict(context.Background(), "m1", "mod1", "")
	require.NoError(t, err)
	require.True(t, out.Success)

	assert.NotContains(t, directory.channels, "tc-legacy")
	assert.NotContains(t, directory.channels, "vc-legacy")
}

func TestUnrestrictNeverDeletesChannelOutsideCategory(t *testing.T) {
	// A spoofed or stale topic points at a voice channel that is not under
	// the restricted category. It must survive.
	engine, _, directory, _ := newTestEngine()
	directory.addMember("mod1")
	directory.addMember("m1", "vegan", "sec5")

	directory.addChannel("vc-elsewhere", gateway.ChannelVoice, "cat-general", "")
	directory.addChannel("tc-spoofed", gateway.ChannelText, "cat-restricted", pairTopic("m1", "vc-elsewhere"))

	out, err := engine.Unrestrict(context.Background(), "m1", "mod1", "")
	require.NoError(t, err)
	require.True(t, out.Success)

	assert.Contains(t, directory.channels, "vc-elsewhere")
	assert.NotContains(t, directory.channels, "tc-spoofed")
}

func TestUnrestrictFlagsInvokingChannelDeletion(t *testing.T) {
	engine, store, directory, _ := newTestEngine()
	directory.addMember("mod1")
	directory.addMember("m1", "vegan")

	_, err := engine.Restrict(context.Background(), "m1", "mod1", "reason", false)
	require.NoError(t, err)
	textID := store.pairs["m1"][0].TextChannelID

	out, err := engine.Unrestrict(context.Background(), "m1", "mod1", textID)
	require.NoError(t, err)

	assert.True(t, out.InvokedChannelRemoved)
}

func TestUnrestrictAuditFailureIsDegradedSuccess(t *testing.T) {
	engine, store, directory, notifier := newTestEngine()
	directory.addMember("mod1")
	directory.addMember("m1", "sec1")
	notifier.channelErr["chan-logs"] = gateway.ErrUnavailable

	out, err := engine.Unrestrict(context.Background(), "m1", "mod1", "")
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.False(t, out.AuditLogged)
	assert.Contains(t, out.Message, "could not find the log channel")
	require.Len(t, store.closed, 1)
}

func TestUnrestrictRoleRestoreFailureIsDegraded(t *testing.T) {
	engine, store, directory, _ := newTestEngine()
	directory.addMember("mod1")
	directory.addMember("m1", "roleA")

	_, err := engine.Restrict(context.Background(), "m1", "mod1", "reason", false)
	require.NoError(t, err)

	directory.grantErr["roleA"] = gateway.ErrUnavailable

	out, err := engine.Unrestrict(context.Background(), "m1", "mod1", "")
	require.NoError(t, err)

	// the record still closes; the missed role is reported, not fatal
	assert.True(t, out.Success)
	assert.Contains(t, out.Degraded, "could not restore all previous roles")
	require.Len(t, store.closed, 1)
}
