package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
	"github.com/mlukic/agora/internal/repository"
)

// memStore is a single in-memory backing store shared by the pool-bound fake
// repos and the transaction-bound ones. Tests that need rollback semantics
// assert on commit counts instead of row visibility.
type memStore struct {
	users       map[uuid.UUID]*domain.User
	servers     map[uuid.UUID]*domain.Server
	members     map[string]*domain.ServerMember // serverID/userID
	channels    map[uuid.UUID]*domain.Channel
	messages    map[uuid.UUID]*domain.Message
	attachments map[uuid.UUID]*domain.Attachment
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[uuid.UUID]*domain.User),
		servers:     make(map[uuid.UUID]*domain.Server),
		members:     make(map[string]*domain.ServerMember),
		channels:    make(map[uuid.UUID]*domain.Channel),
		messages:    make(map[uuid.UUID]*domain.Message),
		attachments: make(map[uuid.UUID]*domain.Attachment),
	}
}

func memberKey(serverID, userID uuid.UUID) string {
	return serverID.String() + "/" + userID.String()
}

// --- user repo ---

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByAvatar(_ context.Context, storedName string) (*domain.User, error) {
	for _, u := range r.s.users {
		if u.Avatar != nil && *u.Avatar == storedName {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

// --- server repo ---

type memServerRepo struct{ s *memStore }

func (r *memServerRepo) Create(_ context.Context, server *domain.Server) error {
	cp := *server
	r.s.servers[server.ID] = &cp
	return nil
}

func (r *memServerRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Server, error) {
	srv, ok := r.s.servers[id]
	if !ok {
		return nil, nil
	}
	cp := *srv
	return &cp, nil
}

func (r *memServerRepo) GetByName(_ context.Context, name string) (*domain.Server, error) {
	for _, srv := range r.s.servers {
		if srv.Name == name {
			cp := *srv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memServerRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Server, error) {
	var out []domain.Server
	for _, m := range r.s.members {
		if m.UserID == userID {
			if srv, ok := r.s.servers[m.ServerID]; ok {
				out = append(out, *srv)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memServerRepo) Update(_ context.Context, server *domain.Server) error {
	cp := *server
	r.s.servers[server.ID] = &cp
	return nil
}

func (r *memServerRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.servers, id)
	for k, m := range r.s.members {
		if m.ServerID == id {
			delete(r.s.members, k)
		}
	}
	return nil
}

func (r *memServerRepo) AddMember(_ context.Context, member *domain.ServerMember) error {
	key := memberKey(member.ServerID, member.UserID)
	if _, ok := r.s.members[key]; ok {
		return fmt.Errorf("duplicate member %s", key)
	}
	cp := *member
	r.s.members[key] = &cp
	return nil
}

func (r *memServerRepo) RemoveMember(_ context.Context, serverID, userID uuid.UUID) error {
	delete(r.s.members, memberKey(serverID, userID))
	return nil
}

func (r *memServerRepo) GetMember(_ context.Context, serverID, userID uuid.UUID) (*domain.ServerMember, error) {
	m, ok := r.s.members[memberKey(serverID, userID)]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *memServerRepo) ListMembers(_ context.Context, serverID uuid.UUID) ([]domain.ServerMember, error) {
	var out []domain.ServerMember
	for _, m := range r.s.members {
		if m.ServerID == serverID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID.String() < out[j].UserID.String() })
	return out, nil
}

func (r *memServerRepo) SetMemberRole(_ context.Context, serverID, userID uuid.UUID, role string) error {
	m, ok := r.s.members[memberKey(serverID, userID)]
	if !ok {
		return fmt.Errorf("no such member")
	}
	m.Role = role
	return nil
}

// --- channel repo ---

type memChannelRepo struct{ s *memStore }

func (r *memChannelRepo) Create(_ context.Context, channel *domain.Channel) error {
	cp := *channel
	r.s.channels[channel.ID] = &cp
	return nil
}

func (r *memChannelRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Channel, error) {
	ch, ok := r.s.channels[id]
	if !ok {
		return nil, nil
	}
	cp := *ch
	return &cp, nil
}

func (r *memChannelRepo) GetByName(_ context.Context, serverID uuid.UUID, name string) (*domain.Channel, error) {
	for _, ch := range r.s.channels {
		if ch.ServerID == serverID && ch.Name == name {
			cp := *ch
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memChannelRepo) ListByServer(_ context.Context, serverID uuid.UUID) ([]domain.Channel, error) {
	var out []domain.Channel
	for _, ch := range r.s.channels {
		if ch.ServerID == serverID {
			out = append(out, *ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memChannelRepo) Update(_ context.Context, channel *domain.Channel) error {
	cp := *channel
	r.s.channels[channel.ID] = &cp
	return nil
}

func (r *memChannelRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.channels, id)
	return nil
}

// --- message repo ---

type memMessageRepo struct{ s *memStore }

func (r *memMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	cp := *msg
	r.s.messages[msg.ID] = &cp
	return nil
}

func (r *memMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	m, ok := r.s.messages[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *memMessageRepo) ListByChannel(_ context.Context, channelID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range r.s.messages {
		if m.ChannelID == channelID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	if before != nil {
		for i, m := range out {
			if m.ID == *before {
				out = out[:i]
				break
			}
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *memMessageRepo) Update(_ context.Context, msg *domain.Message) error {
	cp := *msg
	r.s.messages[msg.ID] = &cp
	return nil
}

func (r *memMessageRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.messages, id)
	return nil
}

// --- attachment repo ---

type memAttachmentRepo struct{ s *memStore }

func (r *memAttachmentRepo) Create(_ context.Context, att *domain.Attachment) error {
	cp := *att
	r.s.attachments[att.ID] = &cp
	return nil
}

func (r *memAttachmentRepo) GetByStoredName(_ context.Context, storedName string) (*domain.Attachment, error) {
	for _, att := range r.s.attachments {
		if att.StoredName == storedName || (att.PreviewName != nil && *att.PreviewName == storedName) {
			cp := *att
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memAttachmentRepo) ServerForStoredName(_ context.Context, storedName string) (*uuid.UUID, error) {
	for _, att := range r.s.attachments {
		if att.StoredName != storedName && (att.PreviewName == nil || *att.PreviewName != storedName) {
			continue
		}
		if att.MessageID == nil {
			continue
		}
		msg, ok := r.s.messages[*att.MessageID]
		if !ok {
			continue
		}
		ch, ok := r.s.channels[msg.ChannelID]
		if !ok {
			continue
		}
		id := ch.ServerID
		return &id, nil
	}
	return nil, nil
}

func (r *memAttachmentRepo) ListStoredNamesByServer(_ context.Context, serverID uuid.UUID) ([]string, error) {
	var out []string
	for _, att := range r.s.attachments {
		if att.MessageID == nil {
			continue
		}
		msg, ok := r.s.messages[*att.MessageID]
		if !ok {
			continue
		}
		ch, ok := r.s.channels[msg.ChannelID]
		if !ok || ch.ServerID != serverID {
			continue
		}
		out = append(out, att.StoredName)
		if att.PreviewName != nil {
			out = append(out, *att.PreviewName)
		}
	}
	return out, nil
}

func (r *memAttachmentRepo) ListStoredNamesByChannel(_ context.Context, channelID uuid.UUID) ([]string, error) {
	var out []string
	for _, att := range r.s.attachments {
		if att.MessageID == nil {
			continue
		}
		msg, ok := r.s.messages[*att.MessageID]
		if !ok || msg.ChannelID != channelID {
			continue
		}
		out = append(out, att.StoredName)
		if att.PreviewName != nil {
			out = append(out, *att.PreviewName)
		}
	}
	return out, nil
}

func (r *memAttachmentRepo) ListStoredNamesByMessage(_ context.Context, messageID uuid.UUID) ([]string, error) {
	var out []string
	for _, att := range r.s.attachments {
		if att.MessageID == nil || *att.MessageID != messageID {
			continue
		}
		out = append(out, att.StoredName)
		if att.PreviewName != nil {
			out = append(out, *att.PreviewName)
		}
	}
	return out, nil
}

// --- unit of work ---

type memTx struct {
	s         *memStore
	committed bool
	uow       *memUoW
}

func (t *memTx) Users() repository.UserRepository             { return &memUserRepo{s: t.s} }
func (t *memTx) Servers() repository.ServerRepository         { return &memServerRepo{s: t.s} }
func (t *memTx) Channels() repository.ChannelRepository       { return &memChannelRepo{s: t.s} }
func (t *memTx) Messages() repository.MessageRepository       { return &memMessageRepo{s: t.s} }
func (t *memTx) Attachments() repository.AttachmentRepository { return &memAttachmentRepo{s: t.s} }

func (t *memTx) Commit(context.Context) error {
	if t.uow.commitErr != nil {
		return t.uow.commitErr
	}
	t.committed = true
	t.uow.commits++
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	if !t.committed {
		t.uow.rollbacks++
	}
	return nil
}

type memUoW struct {
	s         *memStore
	commits   int
	rollbacks int
	commitErr error
}

func (u *memUoW) Begin(context.Context) (repository.Tx, error) {
	return &memTx{s: u.s, uow: u}, nil
}

// --- notifier ---

type recordedEvent struct {
	kind     string
	serverID uuid.UUID
	userID   uuid.UUID
}

type recordingNotifier struct {
	events []recordedEvent
}

func (n *recordingNotifier) record(kind string, serverID, userID uuid.UUID) {
	n.events = append(n.events, recordedEvent{kind: kind, serverID: serverID, userID: userID})
}

func (n *recordingNotifier) ServerUpdated(srv *domain.Server) {
	n.record("server.updated", srv.ID, uuid.Nil)
}
func (n *recordingNotifier) ServerRemoved(serverID uuid.UUID) {
	n.record("server.removed", serverID, uuid.Nil)
}
func (n *recordingNotifier) UserJoined(member *domain.ServerMember) {
	n.record("user.joined", member.ServerID, member.UserID)
}
func (n *recordingNotifier) UserLeft(serverID, userID uuid.UUID) {
	n.record("user.left", serverID, userID)
}
func (n *recordingNotifier) ChannelAdded(ch *domain.Channel) {
	n.record("channel.added", ch.ServerID, uuid.Nil)
}
func (n *recordingNotifier) ChannelRemoved(serverID, channelID uuid.UUID) {
	n.record("channel.removed", serverID, uuid.Nil)
}
func (n *recordingNotifier) ChannelUpdated(ch *domain.Channel) {
	n.record("channel.updated", ch.ServerID, uuid.Nil)
}
func (n *recordingNotifier) MessageAdded(serverID uuid.UUID, msg *domain.Message) {
	n.record("message.added", serverID, msg.SenderID)
}
func (n *recordingNotifier) MessageEdited(serverID uuid.UUID, msg *domain.Message) {
	n.record("message.edited", serverID, msg.SenderID)
}
func (n *recordingNotifier) MessageRemoved(serverID, channelID, messageID uuid.UUID) {
	n.record("message.removed", serverID, uuid.Nil)
}
func (n *recordingNotifier) UsernameChanged(user *domain.User) {
	n.record("username.changed", uuid.Nil, user.ID)
}
func (n *recordingNotifier) AvatarChanged(user *domain.User) {
	n.record("avatar.changed", uuid.Nil, user.ID)
}

// --- registry ---

type leaveCall struct {
	connID uuid.UUID
	group  string
}

type fakeRegistry struct {
	connsByUser map[uuid.UUID][]uuid.UUID
	leaves      []leaveCall
}

func (r *fakeRegistry) ConnectionsForUser(userID uuid.UUID) []uuid.UUID {
	return r.connsByUser[userID]
}

func (r *fakeRegistry) LeaveGroup(connID uuid.UUID, group string) {
	r.leaves = append(r.leaves, leaveCall{connID: connID, group: group})
}

// --- file store ---

type fakeFileStore struct {
	files      map[string][]byte
	uploads    []string
	deletes    []string
	uploadErr  error
	previewErr error
	nextName   int
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: make(map[string][]byte)}
}

func (f *fakeFileStore) Upload(_ context.Context, data []byte, suggestedName string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.nextName++
	name := fmt.Sprintf("stored-%d-%s", f.nextName, suggestedName)
	f.files[name] = data
	f.uploads = append(f.uploads, name)
	return name, nil
}

func (f *fakeFileStore) Delete(_ context.Context, storedName string) (bool, error) {
	_, ok := f.files[storedName]
	delete(f.files, storedName)
	f.deletes = append(f.deletes, storedName)
	return ok, nil
}

func (f *fakeFileStore) GetByName(_ context.Context, storedName string) ([]byte, error) {
	data, ok := f.files[storedName]
	if !ok {
		return nil, nil
	}
	return data, nil
}

func (f *fakeFileStore) GeneratePreview(data []byte) ([]byte, int, int, error) {
	if f.previewErr != nil {
		return nil, 0, 0, f.previewErr
	}
	return []byte("preview-of-" + string(data)), 64, 48, nil
}
