package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/connect-in-the-dark/game/engine"
	"github.com/wricardo/connect-in-the-dark/game/session"
	"github.com/wricardo/connect-in-the-dark/metrics"
)

// gameServiceImpl implements the GameService interface. It holds no state
// of its own; everything shared lives in the injected registries.
type gameServiceImpl struct {
	sessions *session.Manager
	clients  *session.ClientRegistry
	configs  ConfigManager
	logger   *zap.Logger
	metrics  *metrics.Metrics
	shuffle  engine.ShuffleFunc
}

// Option customizes the service
type Option func(*gameServiceImpl)

// WithLogger sets the logger; the default discards everything
func WithLogger(logger *zap.Logger) Option {
	return func(s *gameServiceImpl) {
		s.logger = logger
	}
}

// WithMetrics records dispatch metrics into m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *gameServiceImpl) {
		s.metrics = m
	}
}

// WithShuffle overrides how turn order is randomized
func WithShuffle(shuffle engine.ShuffleFunc) Option {
	return func(s *gameServiceImpl) {
		s.shuffle = shuffle
	}
}

// NewGameService creates a new game service instance. configs may be nil,
// in which case every game uses the classic board.
func NewGameService(sessions *session.Manager, clients *session.ClientRegistry, configs ConfigManager, opts ...Option) GameService {
	if configs == nil {
		configs = staticConfigs{config: engine.DefaultConfig()}
	}

	s := &gameServiceImpl{
		sessions: sessions,
		clients:  clients,
		configs:  configs,
		logger:   zap.NewNop(),
		shuffle:  engine.RandomShuffle,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("dispatcher")

	return s
}

// IsConnected reports whether clientID already has a live connection
func (s *gameServiceImpl) IsConnected(clientID string) bool {
	return s.clients.IsConnected(clientID)
}

// Connect registers a live client and restores its session membership, if
// it is still listed in one.
func (s *gameServiceImpl) Connect(ctx context.Context, clientID string, out session.Outbound) error {
	if err := s.clients.Register(clientID, out); err != nil {
		return err
	}

	log := s.logger.With(zap.String("client_id", clientID))
	if sessionID, ok := s.sessions.FindByMember(clientID); ok {
		if _, _, err := s.sessions.SetActive(clientID, sessionID, true); err == nil {
			s.clients.SetSession(clientID, sessionID)
			log = log.With(zap.String("session_id", sessionID))
		}
	}

	log.Info("client connected")
	return nil
}

// Disconnect unregisters the client and deactivates its membership. The
// session is evicted when nobody in it is still connected.
func (s *gameServiceImpl) Disconnect(ctx context.Context, clientID string, out session.Outbound) {
	sessionID, ok := s.clients.Unregister(clientID, out)
	if !ok {
		return
	}

	log := s.logger.With(zap.String("client_id", clientID))
	if sessionID == "" {
		log.Info("client disconnected")
		return
	}

	log = log.With(zap.String("session_id", sessionID))
	_, evicted, err := s.sessions.SetActive(clientID, sessionID, false)
	switch {
	case err != nil:
		log.Debug("session already gone on disconnect", zap.Error(err))
	case evicted:
		log.Info("client disconnected, session evicted")
	default:
		log.Info("client disconnected, membership kept")
	}
}

// HandleFrame decodes one inbound frame and dispatches it. Frames that
// cannot be decoded are logged and dropped.
func (s *gameServiceImpl) HandleFrame(ctx context.Context, clientID string, frame []byte) {
	log := s.logger.With(zap.String("client_id", clientID))

	event, err := DecodeClientEvent(frame)
	if err != nil {
		s.metrics.ProtocolError(protocolReason(err))
		log.Warn("dropping inbound frame", zap.Error(err), zap.ByteString("frame", truncate(frame, 256)))
		return
	}

	name := event.EventCode.String()
	s.metrics.EventReceived(name)
	defer s.metrics.ObserveDispatch(name, time.Now())

	log.Debug("dispatching event", zap.String("event", name))

	switch event.EventCode {
	case SessionRequest:
		s.handleSessionRequest(log, clientID)
	case CreateSession:
		s.handleCreateSession(log, clientID)
	case JoinSession:
		s.handleJoinSession(log, clientID, *event.Data.SessionID)
	case LeaveSession:
		s.handleLeaveSession(log, clientID)
	case StartGame:
		s.handleStartGame(log, clientID)
	case PlayColumn:
		s.handlePlayColumn(log, clientID, *event.Data.Column)
	}
}

// ListSessions returns every live session, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	infos := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		info, err := s.describe(sess.ID)
		if errors.Is(err, session.ErrSessionNotFound) {
			// Evicted since List
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// GetSession returns one session by code
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	id, err := session.NormalizeID(sessionID)
	if err != nil {
		return nil, err
	}
	return s.describe(id)
}

func (s *gameServiceImpl) describe(sessionID string) (*SessionInfo, error) {
	var info *SessionInfo
	err := s.sessions.ViewGame(sessionID, func(sess *session.Session, game *engine.Game) {
		info = &SessionInfo{
			ID:        sess.ID,
			Owner:     sess.Owner,
			CreatedAt: sess.CreatedAt,
		}
		for _, id := range sess.MemberIDs() {
			info.Members = append(info.Members, MemberInfo{ID: id, Active: sess.Members[id]})
		}
		if game != nil {
			info.Game = newGameInfo(game)
		}
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Stats returns live counts
func (s *gameServiceImpl) Stats(ctx context.Context) (*Stats, error) {
	return &Stats{
		ConnectedClients: s.clients.Count(),
		Sessions:         s.sessions.Count(),
		Games:            s.sessions.Games().Count(),
	}, nil
}

// ListConfigs returns the available board variants
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// CurrentConfig describes the variant new games are created with
func (s *gameServiceImpl) CurrentConfig(ctx context.Context) *ConfigInfo {
	config := s.configs.GetDefault()
	return NewConfigInfo(config.Name, config)
}

func protocolReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownEvent):
		return "unknown_event"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	default:
		return "malformed"
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
