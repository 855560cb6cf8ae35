package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
)

func newChannelServiceForTest() (*ChannelService, *memStore, *memUoW, *recordingNotifier, *fakeFileStore) {
	store := newMemStore()
	uow := &memUoW{s: store}
	files := newFakeFileStore()
	svc := NewChannelService(uow, &memChannelRepo{s: store}, &memServerRepo{s: store}, files)
	notifier := &recordingNotifier{}
	svc.SetNotifier(notifier)
	return svc, store, uow, notifier, files
}

func TestChannelCreate(t *testing.T) {
	svc, store, uow, notifier, _ := newChannelServiceForTest()
	ownerID := uuid.New()
	srv := seedServer(store, ownerID, "gophers")

	ch, err := svc.Create(context.Background(), ownerID, srv.ID, CreateChannelInput{Name: "general"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ch.ServerID != srv.ID {
		t.Errorf("server id = %s, want %s", ch.ServerID, srv.ID)
	}
	if uow.commits != 1 {
		t.Errorf("commits = %d, want 1", uow.commits)
	}
	if len(notifier.events) != 1 || notifier.events[0].kind != "channel.added" {
		t.Fatalf("events = %+v, want one channel.added", notifier.events)
	}

	// Names are unique per server, not globally.
	_, err = svc.Create(context.Background(), ownerID, srv.ID, CreateChannelInput{Name: "general"})
	if !errors.Is(err, ErrChannelNameTaken) {
		t.Fatalf("err = %v, want ErrChannelNameTaken", err)
	}

	other := seedServer(store, ownerID, "plumbers")
	if _, err := svc.Create(context.Background(), ownerID, other.ID, CreateChannelInput{Name: "general"}); err != nil {
		t.Fatalf("same name on another server: %v", err)
	}
}

func TestChannelCreateNonMember(t *testing.T) {
	svc, store, _, _, _ := newChannelServiceForTest()
	srv := seedServer(store, uuid.New(), "gophers")

	_, err := svc.Create(context.Background(), uuid.New(), srv.ID, CreateChannelInput{Name: "general"})
	if !errors.Is(err, ErrNotAMember) {
		t.Fatalf("err = %v, want ErrNotAMember", err)
	}

	_, err = svc.Create(context.Background(), uuid.New(), uuid.New(), CreateChannelInput{Name: "general"})
	if !errors.Is(err, ErrServerNotFound) {
		t.Fatalf("err = %v, want ErrServerNotFound", err)
	}
}

func TestChannelListRequiresMembership(t *testing.T) {
	svc, store, _, _, _ := newChannelServiceForTest()
	ownerID := uuid.New()
	srv := seedServer(store, ownerID, "gophers")
	seedChannel(store, srv.ID, "general")

	channels, err := svc.ListByServer(context.Background(), ownerID, srv.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(channels) != 1 {
		t.Errorf("channels = %d, want 1", len(channels))
	}

	_, err = svc.ListByServer(context.Background(), uuid.New(), srv.ID)
	if !errors.Is(err, ErrNotAMember) {
		t.Fatalf("err = %v, want ErrNotAMember", err)
	}
}

func TestChannelRenameRequiresModerator(t *testing.T) {
	svc, store, _, notifier, _ := newChannelServiceForTest()
	ownerID := uuid.New()
	srv := seedServer(store, ownerID, "gophers")
	ch := seedChannel(store, srv.ID, "general")

	member := seedUser(store, "mika")
	store.members[memberKey(srv.ID, member.ID)] = &domain.ServerMember{
		ServerID: srv.ID, UserID: member.ID, Role: domain.RoleMember,
	}

	_, err := svc.Rename(context.Background(), member.ID, ch.ID, "random")
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}

	// Admins qualify.
	store.members[memberKey(srv.ID, member.ID)].Role = domain.RoleAdmin
	renamed, err := svc.Rename(context.Background(), member.ID, ch.ID, "random")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Name != "random" {
		t.Errorf("name = %q, want %q", renamed.Name, "random")
	}
	last := notifier.events[len(notifier.events)-1]
	if last.kind != "channel.updated" {
		t.Errorf("last event = %+v, want channel.updated", last)
	}
}

func TestChannelRemove(t *testing.T) {
	svc, store, _, notifier, _ := newChannelServiceForTest()
	ownerID := uuid.New()
	srv := seedServer(store, ownerID, "gophers")
	ch := seedChannel(store, srv.ID, "general")

	if err := svc.Remove(context.Background(), ownerID, ch.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := store.channels[ch.ID]; ok {
		t.Error("channel row should be gone")
	}
	if len(notifier.events) != 1 || notifier.events[0].kind != "channel.removed" {
		t.Fatalf("events = %+v, want one channel.removed", notifier.events)
	}

	err := svc.Remove(context.Background(), ownerID, ch.ID)
	if !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("err = %v, want ErrChannelNotFound", err)
	}
}

func TestChannelRemoveCleansUpFiles(t *testing.T) {
	svc, store, _, _, files := newChannelServiceForTest()
	ownerID := uuid.New()
	srv := seedServer(store, ownerID, "gophers")
	ch := seedChannel(store, srv.ID, "general")

	msg := &domain.Message{ID: uuid.New(), ChannelID: ch.ID, SenderID: ownerID, Text: "look"}
	store.messages[msg.ID] = msg
	preview := "preview-x.png"
	att := &domain.Attachment{ID: uuid.New(), MessageID: &msg.ID, StoredName: "stored-x.png", PreviewName: &preview}
	store.attachments[att.ID] = att
	files.files[att.StoredName] = []byte("blob")
	files.files[preview] = []byte("small blob")

	// Files in another channel stay untouched.
	other := seedChannel(store, srv.ID, "random")
	otherMsg := &domain.Message{ID: uuid.New(), ChannelID: other.ID, SenderID: ownerID, Text: "keep"}
	store.messages[otherMsg.ID] = otherMsg
	otherAtt := &domain.Attachment{ID: uuid.New(), MessageID: &otherMsg.ID, StoredName: "stored-y.png"}
	store.attachments[otherAtt.ID] = otherAtt
	files.files[otherAtt.StoredName] = []byte("other blob")

	if err := svc.Remove(context.Background(), ownerID, ch.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	deleted := map[string]bool{}
	for _, name := range files.deletes {
		deleted[name] = true
	}
	if !deleted["stored-x.png"] || !deleted["preview-x.png"] {
		t.Errorf("deletes = %v, want stored and preview names", files.deletes)
	}
	if deleted["stored-y.png"] {
		t.Error("files in a surviving channel must not be deleted")
	}
}
