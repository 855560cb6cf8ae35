package domain

import (
	"time"

	"github.com/google/uuid"
)

// Membership roles. The role lives on the server membership, not the user:
// the same user can own one server and be a plain member of another.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Server struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Icon        *string   `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ServerMember struct {
	ServerID uuid.UUID `json:"server_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
	// Joined fields
	Username string  `json:"username,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// ServerGroup is the fan-out group key for a server. Group membership is
// tracked per connection, so one user's devices subscribe independently.
func ServerGroup(serverID uuid.UUID) string {
	return "server:" + serverID.String()
}
