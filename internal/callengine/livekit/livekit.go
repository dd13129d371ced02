package livekit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/livestage-server/internal/callengine"
	"github.com/vovakirdan/livestage-server/internal/config"
	"github.com/vovakirdan/livestage-server/internal/core"
)

// Observer is notified about issuance outcomes.
type Observer interface {
	TokenIssued(role string)
	TokenFailed(reason string)
}

// Option customizes a LiveKitEngine.
type Option func(*LiveKitEngine)

// WithRolePolicy replaces the default viewer-prefix policy.
func WithRolePolicy(p callengine.RolePolicy) Option {
	return func(e *LiveKitEngine) { e.policy = p }
}

// WithClock sets the time source used for expiry reporting.
func WithClock(now func() time.Time) Option {
	return func(e *LiveKitEngine) { e.now = now }
}

// WithObserver attaches an issuance observer.
func WithObserver(obs Observer) Option {
	return func(e *LiveKitEngine) { e.obs = obs }
}

// WithLogger sets the logger used for server-side failure detail.
func WithLogger(logger *zerolog.Logger) Option {
	return func(e *LiveKitEngine) { e.log = logger }
}

// LiveKitEngine implements callengine.Engine using LiveKit access tokens.
type LiveKitEngine struct {
	cfg    config.LiveKitConfig
	policy callengine.RolePolicy
	now    func() time.Time
	obs    Observer
	log    *zerolog.Logger
}

// New creates a new LiveKitEngine. Missing credentials are reported per request, not here.
func New(cfg config.LiveKitConfig, opts ...Option) *LiveKitEngine {
	nop := zerolog.Nop()
	e := &LiveKitEngine{
		cfg:    cfg,
		policy: callengine.RoleFor,
		now:    time.Now,
		log:    &nop,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckConfig returns an error wrapping core.ErrConfiguration naming, never echoing, missing settings.
func (e *LiveKitEngine) CheckConfig() error {
	if missing := e.cfg.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: livekit %s not set", core.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// GenerateJoinInfo creates a grant for the participant with role-derived permissions.
func (e *LiveKitEngine) GenerateJoinInfo(_ context.Context, req callengine.GrantRequest) (*callengine.JoinInfo, error) {
	if err := req.Validate(); err != nil {
		e.failed("validation")
		return nil, err
	}
	if err := e.CheckConfig(); err != nil {
		e.failed("configuration")
		return nil, err
	}

	room := req.RoomName
	if e.cfg.FixedRoom != "" {
		room = e.cfg.FixedRoom
	}

	role := e.policy(req.ParticipantName)
	perms := callengine.PermissionsFor(role)

	at := auth.NewAccessToken(e.cfg.APIKey, e.cfg.APISecret)
	at.SetVideoGrant(videoGrant(room, perms)).
		SetIdentity(req.ParticipantName).
		SetValidFor(callengine.GrantTTL)

	issuedAt := e.now()
	token, err := at.ToJWT()
	if err != nil {
		e.failed("signing")
		e.log.Error().Err(err).Str("room", room).Str("identity", req.ParticipantName).Msg("sign livekit token")
		return nil, fmt.Errorf("%w: sign token: %v", core.ErrInternal, err)
	}

	if e.obs != nil {
		e.obs.TokenIssued(string(role))
	}
	e.log.Debug().Str("room", room).Str("identity", req.ParticipantName).Str("role", string(role)).Msg("grant issued")

	return &callengine.JoinInfo{
		URL:       e.cfg.URL,
		Token:     token,
		RoomName:  room,
		Identity:  req.ParticipantName,
		Role:      role,
		ExpiresAt: issuedAt.Add(callengine.GrantTTL).UTC(),
	}, nil
}

func videoGrant(room string, p callengine.Permissions) *auth.VideoGrant {
	canPublish := p.CanPublish
	canPublishData := p.CanPublishData
	canUpdateOwnMetadata := p.CanUpdateOwnMetadata
	canSubscribe := p.CanSubscribe

	return &auth.VideoGrant{
		RoomJoin:             true,
		Room:                 room,
		CanPublish:           &canPublish,
		CanPublishData:       &canPublishData,
		CanUpdateOwnMetadata: &canUpdateOwnMetadata,
		CanSubscribe:         &canSubscribe,
		Hidden:               p.Hidden,
		Recorder:             p.Recorder,
	}
}

func (e *LiveKitEngine) failed(reason string) {
	if e.obs != nil {
		e.obs.TokenFailed(reason)
	}
}

// Ensure LiveKitEngine implements callengine.Engine
var _ callengine.Engine = (*LiveKitEngine)(nil)
