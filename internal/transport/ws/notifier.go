package ws

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
	"github.com/mlukic/agora/internal/service"
	"go.uber.org/zap"
)

// HubNotifier fans committed state changes out through the hub. It satisfies
// service.Notifier; failures are logged and swallowed because the triggering
// operation has already committed.
type HubNotifier struct {
	hub   *Hub
	sugar *zap.SugaredLogger
}

var _ service.Notifier = (*HubNotifier)(nil)

func NewHubNotifier(hub *Hub, sugar *zap.SugaredLogger) *HubNotifier {
	return &HubNotifier{hub: hub, sugar: sugar}
}

func (n *HubNotifier) ServerUpdated(srv *domain.Server) {
	n.toGroup(srv.ID, EventTypeServerUpdated, ServerPayload{Server: *srv})
}

func (n *HubNotifier) ServerRemoved(serverID uuid.UUID) {
	n.toGroup(serverID, EventTypeServerRemoved, ServerRemovedPayload{ID: serverID})
}

func (n *HubNotifier) UserJoined(member *domain.ServerMember) {
	n.toGroup(member.ServerID, EventTypeUserJoined, MemberPayload{ServerMember: *member})
}

func (n *HubNotifier) UserLeft(serverID, userID uuid.UUID) {
	n.toGroup(serverID, EventTypeUserLeft, UserLeftPayload{ServerID: serverID, UserID: userID})
}

func (n *HubNotifier) ChannelAdded(ch *domain.Channel) {
	n.toGroup(ch.ServerID, EventTypeChannelAdded, ChannelPayload{Channel: *ch})
}

func (n *HubNotifier) ChannelRemoved(serverID, channelID uuid.UUID) {
	n.toGroup(serverID, EventTypeChannelRemoved, ChannelRemovedPayload{ServerID: serverID, ChannelID: channelID})
}

func (n *HubNotifier) ChannelUpdated(ch *domain.Channel) {
	n.toGroup(ch.ServerID, EventTypeChannelUpdated, ChannelPayload{Channel: *ch})
}

func (n *HubNotifier) MessageAdded(serverID uuid.UUID, msg *domain.Message) {
	n.toGroup(serverID, EventTypeMessageAdded, MessagePayload{Message: *msg})
}

func (n *HubNotifier) MessageEdited(serverID uuid.UUID, msg *domain.Message) {
	n.toGroup(serverID, EventTypeMessageEdited, MessagePayload{Message: *msg})
}

func (n *HubNotifier) MessageRemoved(serverID, channelID, messageID uuid.UUID) {
	n.toGroup(serverID, EventTypeMessageRemoved, MessageRemovedPayload{ChannelID: channelID, MessageID: messageID})
}

// UsernameChanged and AvatarChanged target the user's own connections; the
// client re-renders wherever the user appears.
func (n *HubNotifier) UsernameChanged(user *domain.User) {
	n.toUser(user.ID, EventTypeUsernameChanged, UserPayload{User: *user})
}

func (n *HubNotifier) AvatarChanged(user *domain.User) {
	n.toUser(user.ID, EventTypeAvatarChanged, UserPayload{User: *user})
}

func (n *HubNotifier) toGroup(serverID uuid.UUID, eventType string, payload any) {
	data, ok := n.encode(eventType, payload)
	if !ok {
		return
	}
	n.hub.SendToGroup(domain.ServerGroup(serverID), data)
}

func (n *HubNotifier) toUser(userID uuid.UUID, eventType string, payload any) {
	data, ok := n.encode(eventType, payload)
	if !ok {
		return
	}
	n.hub.SendToUser(userID, data)
}

func (n *HubNotifier) encode(eventType string, payload any) ([]byte, bool) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		n.sugar.Errorf("ws notifier: encode %s payload: %v", eventType, err)
		return nil, false
	}
	data, err := json.Marshal(evt)
	if err != nil {
		n.sugar.Errorf("ws notifier: marshal %s event: %v", eventType, err)
		return nil, false
	}
	return data, true
}
