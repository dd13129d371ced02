package callengine

import (
	"context"
	"strings"
	"time"

	"github.com/vovakirdan/livestage-server/internal/core"
)

// GrantTTL is how long an issued grant stays valid. It is not configurable.
const GrantTTL = 10 * time.Minute

// ViewerPrefix marks identities that only watch.
const ViewerPrefix = "viewer-"

// Role is the participant role derived from an identity.
type Role string

const (
	RoleHost   Role = "host"
	RoleViewer Role = "viewer"
)

// RolePolicy derives a role from a participant identity.
type RolePolicy func(identity string) Role

// RoleFor is the default policy: identities prefixed with "viewer-" are viewers, all others host.
func RoleFor(identity string) Role {
	if strings.HasPrefix(identity, ViewerPrefix) {
		return RoleViewer
	}
	return RoleHost
}

// Permissions is the capability set carried by a grant.
type Permissions struct {
	CanPublish           bool
	CanPublishData       bool
	CanUpdateOwnMetadata bool
	CanSubscribe         bool
	Hidden               bool
	Recorder             bool
}

// PermissionsFor returns the fixed capability set for role.
func PermissionsFor(role Role) Permissions {
	host := role != RoleViewer
	return Permissions{
		CanPublish:           host,
		CanPublishData:       host,
		CanUpdateOwnMetadata: host,
		CanSubscribe:         true,
		Hidden:               !host,
		Recorder:             false,
	}
}

// GrantRequest names the room and participant a grant is issued for.
type GrantRequest struct {
	RoomName        string
	ParticipantName string
}

// Validate reports every missing field as a *core.ValidationError.
func (r GrantRequest) Validate() error {
	return core.RequireFields(
		core.Field{Name: "roomName", Value: r.RoomName},
		core.Field{Name: "participantName", Value: r.ParticipantName},
	)
}

// JoinInfo contains information needed to connect to the media platform.
type JoinInfo struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	RoomName  string    `json:"room_name"`
	Identity  string    `json:"identity"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Engine issues signed grants for the media backend.
type Engine interface {
	// GenerateJoinInfo validates req and returns a signed grant.
	// Errors wrap core.ErrValidation, core.ErrConfiguration or core.ErrInternal.
	GenerateJoinInfo(ctx context.Context, req GrantRequest) (*JoinInfo, error)
}
