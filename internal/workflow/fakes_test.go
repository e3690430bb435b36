package workflow

import (
	"context"
	"fmt"

	"github.com/Euphemus333/arabot/internal/config"
	"github.com/Euphemus333/arabot/internal/gateway"
	"github.com/Euphemus333/arabot/internal/models"
	"github.com/Euphemus333/arabot/internal/storage"
)

func testIdentifiers() config.IdentifiersConfig {
	return config.IdentifiersConfig{
		Roles: config.RoleIdentifiers{
			Everyone:               "guild",
			Restricted:             []string{"sec1", "sec2", "sec3", "sec4", "sec5"},
			Verified:               "vegan",
			Cleared:                "nonvegan",
			RestrictedStaff:        "staff",
			BlockedWhileRestricted: []string{"blocked1", "blocked2"},
		},
		Categories: config.CategoryIdentifiers{Restricted: "cat-restricted"},
		Channels:   config.ChannelIdentifiers{RestrictedLogs: "chan-logs"},
	}
}

type fakeStore struct {
	members      map[string]bool
	placeholders map[string]bool
	active       map[string]*models.RestrictionRecord
	closed       []*models.RestrictionRecord
	snapshots    map[string][]string
	pairs        map[string][]*models.ResourcePair

	createCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:      make(map[string]bool),
		placeholders: make(map[string]bool),
		active:       make(map[string]*models.RestrictionRecord),
		snapshots:    make(map[string][]string),
		pairs:        make(map[string][]*models.ResourcePair),
	}
}

func (s *fakeStore) EnsureMember(memberID string) error {
	s.members[memberID] = true
	return nil
}

func (s *fakeStore) HasActiveRestriction(memberID string) (bool, error) {
	_, ok := s.active[memberID]
	return ok, nil
}

func (s *fakeStore) CreateRestriction(memberID, moderatorID, reason string, section int) (*models.RestrictionRecord, error) {
	s.createCalls++
	if _, ok := s.active[memberID]; ok {
		return nil, storage.ErrConflict
	}
	active := true
	record := &models.RestrictionRecord{
		MemberID:    memberID,
		ModeratorID: moderatorID,
		Reason:      reason,
		Section:     section,
		Active:      &active,
	}
	s.active[memberID] = record
	return record, nil
}

func (s *fakeStore) CloseRestriction(memberID, moderatorID string) error {
	record, ok := s.active[memberID]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.active, memberID)
	record.Active = nil
	record.ClosedBy = moderatorID
	s.closed = append(s.closed, record)
	return nil
}

func (s *fakeStore) CloseLegacyRestriction(memberID, moderatorID string, section int) error {
	s.closed = append(s.closed, &models.RestrictionRecord{
		MemberID:    memberID,
		ModeratorID: moderatorID,
		Section:     section,
		Legacy:      true,
		ClosedBy:    moderatorID,
	})
	return nil
}

func (s *fakeStore) CreatePlaceholder(memberID string) error {
	s.members[memberID] = true
	s.placeholders[memberID] = true
	return nil
}

func (s *fakeStore) SaveRoleSnapshot(memberID string, roleIDs []string) error {
	snapshot := make([]string, len(roleIDs))
	copy(snapshot, roleIDs)
	s.snapshots[memberID] = snapshot
	return nil
}

func (s *fakeStore) FetchRoleSnapshot(memberID string) ([]string, error) {
	return s.snapshots[memberID], nil
}

func (s *fakeStore) SaveResourcePair(memberID, textChannelID, voiceChannelID string) error {
	s.pairs[memberID] = append(s.pairs[memberID], &models.ResourcePair{
		MemberID:       memberID,
		TextChannelID:  textChannelID,
		VoiceChannelID: voiceChannelID,
	})
	return nil
}

func (s *fakeStore) FetchResourcePairs(memberID string) ([]*models.ResourcePair, error) {
	return s.pairs[memberID], nil
}

func (s *fakeStore) DeleteResourcePairs(memberID string) error {
	delete(s.pairs, memberID)
	return nil
}

type fakeDirectory struct {
	users    map[string]*gateway.User
	members  map[string]*gateway.Member
	channels map[string]*gateway.Channel

	nextChannelID int
	deleted       []string
	disconnected  []string
	grantCalls    int
	revokeCalls   int
	grantErr      map[string]error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:    make(map[string]*gateway.User),
		members:  make(map[string]*gateway.Member),
		channels: make(map[string]*gateway.Channel),
		grantErr: make(map[string]error),
	}
}

func (d *fakeDirectory) addUser(id string) *gateway.User {
	user := &gateway.User{ID: id, Username: "user-" + id}
	d.users[id] = user
	return user
}

func (d *fakeDirectory) addMember(id string, roles ...string) *gateway.Member {
	d.addUser(id)
	member := &gateway.Member{ID: id, Username: "user-" + id, Roles: roles}
	d.members[id] = member
	return member
}

func (d *fakeDirectory) addChannel(id string, kind gateway.ChannelKind, parentID, topic string) *gateway.Channel {
	channel := &gateway.Channel{ID: id, Name: id, Kind: kind, ParentID: parentID, Topic: topic}
	d.channels[id] = channel
	return channel
}

func (d *fakeDirectory) ResolveUser(ctx context.Context, userID string) (*gateway.User, error) {
	user, ok := d.users[userID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return user, nil
}

func (d *fakeDirectory) ResolveMember(ctx context.Context, userID string) (*gateway.Member, error) {
	member, ok := d.members[userID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return member, nil
}

func (d *fakeDirectory) ResolveRole(ctx context.Context, roleID string) (*gateway.Role, error) {
	return &gateway.Role{ID: roleID, Name: roleID}, nil
}

func (d *fakeDirectory) CreateChannel(ctx context.Context, spec gateway.ChannelSpec) (*gateway.Channel, error) {
	d.nextChannelID++
	channel := &gateway.Channel{
		ID:       fmt.Sprintf("chan-%d", d.nextChannelID),
		Name:     spec.Name,
		Kind:     spec.Kind,
		ParentID: spec.ParentID,
		Topic:    spec.Topic,
	}
	d.channels[channel.ID] = channel
	return channel, nil
}

func (d *fakeDirectory) RenameChannel(ctx context.Context, channelID, name string) error {
	channel, ok := d.channels[channelID]
	if !ok {
		return gateway.ErrNotFound
	}
	channel.Name = name
	return nil
}

func (d *fakeDirectory) DeleteChannel(ctx context.Context, channelID string) error {
	if _, ok := d.channels[channelID]; !ok {
		return gateway.ErrNotFound
	}
	delete(d.channels, channelID)
	d.deleted = append(d.deleted, channelID)
	return nil
}

func (d *fakeDirectory) Channel(ctx context.Context, channelID string) (*gateway.Channel, error) {
	channel, ok := d.channels[channelID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return channel, nil
}

func (d *fakeDirectory) ChannelsInCategory(ctx context.Context, categoryID string) ([]*gateway.Channel, error) {
	var children []*gateway.Channel
	for _, channel := range d.channels {
		if channel.ParentID == categoryID {
			children = append(children, channel)
		}
	}
	return children, nil
}

func (d *fakeDirectory) GrantRole(ctx context.Context, memberID, roleID string) error {
	d.grantCalls++
	if err, ok := d.grantErr[roleID]; ok {
		return err
	}
	member, ok := d.members[memberID]
	if !ok {
		return gateway.ErrNotFound
	}
	if !member.HasRole(roleID) {
		member.Roles = append(member.Roles, roleID)
	}
	return nil
}

func (d *fakeDirectory) RevokeRoles(ctx context.Context, memberID string, roleIDs []string) error {
	d.revokeCalls++
	member, ok := d.members[memberID]
	if !ok {
		return gateway.ErrNotFound
	}
	remove := make(map[string]bool, len(roleIDs))
	for _, roleID := range roleIDs {
		remove[roleID] = true
	}
	var kept []string
	for _, roleID := range member.Roles {
		if !remove[roleID] {
			kept = append(kept, roleID)
		}
	}
	member.Roles = kept
	return nil
}

func (d *fakeDirectory) DisconnectVoice(ctx context.Context, memberID string) error {
	member, ok := d.members[memberID]
	if !ok {
		return gateway.ErrNotFound
	}
	member.VoiceChannelID = ""
	d.disconnected = append(d.disconnected, memberID)
	return nil
}

type sentMessage struct {
	target string
	notice gateway.Notice
}

type fakeNotifier struct {
	dms      []sentMessage
	messages []sentMessage

	dmErr      error
	channelErr map[string]error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{channelErr: make(map[string]error)}
}

func (n *fakeNotifier) SendDirectMessage(ctx context.Context, userID string, notice gateway.Notice) error {
	if n.dmErr != nil {
		return n.dmErr
	}
	n.dms = append(n.dms, sentMessage{target: userID, notice: notice})
	return nil
}

func (n *fakeNotifier) SendChannelMessage(ctx context.Context, channelID string, notice gateway.Notice) error {
	if err, ok := n.channelErr[channelID]; ok {
		return err
	}
	n.messages = append(n.messages, sentMessage{target: channelID, notice: notice})
	return nil
}

// channelMessagesTo filters messages sent to one channel.
func (n *fakeNotifier) channelMessagesTo(channelID string) []sentMessage {
	var sent []sentMessage
	for _, message := range n.messages {
		if message.target == channelID {
			sent = append(sent, message)
		}
	}
	return sent
}

func newTestEngine() (*Engine, *fakeStore, *fakeDirectory, *fakeNotifier) {
	store := newFakeStore()
	directory := newFakeDirectory()
	notifier := newFakeNotifier()
	engine := NewEngine(store, directory, notifier, testIdentifiers())
	return engine, store, directory, notifier
}
