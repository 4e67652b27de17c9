package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wricardo/connect-in-the-dark/game/engine"
	"github.com/wricardo/connect-in-the-dark/game/session"
)

// logicErrors maps rule violations to the reason label used in metrics and
// the message shown to the requester.
var logicErrors = []struct {
	err     error
	reason  string
	message string
}{
	{engine.ErrNotYourTurn, "not_your_turn", "It is not your turn to play."},
	{engine.ErrColumnFull, "column_full", "This column has reached its max."},
	{engine.ErrGameOver, "game_over", "The game has ended."},
	{engine.ErrNotEnoughPlayers, "not_enough_players", "Not enough players to start a game."},
	{engine.ErrTooManyPlayers, "too_many_players", "Too many players to start a game."},
	{session.ErrGameNotFound, "no_game", "There is no game in progress."},
	{session.ErrGameInProgress, "game_in_progress", "A game is already in progress."},
	{session.ErrInvalidSessionID, "invalid_session_id", "Invalid session id."},
	{session.ErrAlreadyInSession, "already_in_session", "You are already in a session."},
	{session.ErrSessionAlreadyExists, "session_exists", "That session already exists."},
	{session.ErrSessionNotFound, "session_not_found", "That session does not exist."},
	{session.ErrNotMember, "not_in_session", "You are not in a session."},
}

func logicError(err error) (reason, message string) {
	for _, le := range logicErrors {
		if errors.Is(err, le.err) {
			return le.reason, le.message
		}
	}
	return "internal", "Something went wrong."
}

func (s *gameServiceImpl) handleSessionRequest(log *zap.Logger, clientID string) {
	sessionID, ok := s.sessions.FindByMember(clientID)
	if !ok {
		return
	}

	var event ServerEvent
	err := s.sessions.ViewGame(sessionID, func(sess *session.Session, game *engine.Game) {
		var view *engine.GameView
		if game != nil {
			v := game.View(clientID)
			view = &v
		}
		event = NewSessionResponse(sess.ID, sess.MemberIDs(), view)
	})
	if err != nil {
		log.Debug("session gone before status reply", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	s.send(log, clientID, event)
}

func (s *gameServiceImpl) handleCreateSession(log *zap.Logger, clientID string) {
	s.leaveCurrent(log, clientID)

	sess, err := s.sessions.Create(clientID, "")
	if err != nil {
		s.rejectLogic(log, clientID, err)
		return
	}
	s.clients.SetSession(clientID, sess.ID)

	log.Info("session created", zap.String("session_id", sess.ID))
	s.send(log, clientID, NewClientJoined(sess.ID, clientID, sess.MemberIDs()))
}

func (s *gameServiceImpl) handleJoinSession(log *zap.Logger, clientID, rawID string) {
	sessionID, err := session.NormalizeID(rawID)
	if err != nil {
		s.rejectLogic(log, clientID, err)
		return
	}
	log = log.With(zap.String("session_id", sessionID))

	if current, ok := s.sessions.FindByMember(clientID); ok && current == sessionID {
		sess, err := s.sessions.Join(clientID, sessionID)
		if err != nil {
			s.rejectLogic(log, clientID, err)
			return
		}
		s.send(log, clientID, NewClientJoined(sess.ID, clientID, sess.MemberIDs()))
		return
	}

	s.leaveCurrent(log, clientID)

	sess, err := s.sessions.Join(clientID, sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		sess, err = s.sessions.Create(clientID, sessionID)
		if errors.Is(err, session.ErrSessionAlreadyExists) {
			// Someone else reserved it first
			sess, err = s.sessions.Join(clientID, sessionID)
		} else if err == nil {
			log.Info("reserved session created")
		}
	}
	if err != nil {
		s.rejectLogic(log, clientID, err)
		return
	}
	s.clients.SetSession(clientID, sess.ID)

	log.Info("client joined session", zap.Int("members", len(sess.Members)))
	s.broadcast(log, sess.MemberIDs(), NewClientJoined(sess.ID, clientID, sess.MemberIDs()))
}

func (s *gameServiceImpl) handleLeaveSession(log *zap.Logger, clientID string) {
	s.leaveCurrent(log, clientID)
}

// leaveCurrent removes clientID from whatever session it is in and tells
// the remaining members and the leaver.
func (s *gameServiceImpl) leaveCurrent(log *zap.Logger, clientID string) {
	sessionID, ok := s.sessions.FindByMember(clientID)
	if !ok {
		return
	}
	log = log.With(zap.String("session_id", sessionID))

	sess, evicted, err := s.sessions.Leave(clientID, sessionID)
	s.clients.SetSession(clientID, "")
	if err != nil {
		log.Debug("leave raced with eviction", zap.Error(err))
		return
	}

	remaining := sess.MemberIDs()
	if evicted {
		log.Info("client left, session evicted")
	} else {
		log.Info("client left session", zap.String("owner", sess.Owner))
	}

	recipients := append([]string{clientID}, remaining...)
	s.broadcast(log, recipients, NewClientLeft(sessionID, clientID, remaining))
}

func (s *gameServiceImpl) handleStartGame(log *zap.Logger, clientID string) {
	sessionID, ok := s.sessions.FindByMember(clientID)
	if !ok {
		s.rejectLogic(log, clientID, session.ErrNotMember)
		return
	}
	log = log.With(zap.String("session_id", sessionID))

	config := s.configs.GetDefault()
	build := func(active []string) (*engine.Game, error) {
		return engine.NewGame(config, active, s.shuffle)
	}
	announce := func(sess *session.Session, game *engine.Game) {
		first := game.CurrentPlayer()
		for _, id := range sess.MemberIDs() {
			view := game.View(id)
			s.send(log, id, NewGameStarted(sess.ID, view))
			s.send(log, id, NewTurnStart(sess.ID, first, view))
		}
		log.Info("game started",
			zap.Strings("turn_order", game.TurnOrder()),
			zap.String("config", config.Name))
	}

	_, err := s.sessions.StartGame(sessionID, build, announce)
	switch {
	case err == nil:
		s.metrics.GameStarted()
	case errors.Is(err, engine.ErrNotEnoughPlayers):
		s.rejectShortfall(log, sessionID, config.MinPlayers)
	default:
		s.rejectLogic(log, clientID, err)
	}
}

// rejectShortfall tells the whole session that the game cannot start yet
func (s *gameServiceImpl) rejectShortfall(log *zap.Logger, sessionID string, minPlayers int) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return
	}
	reason, _ := logicError(engine.ErrNotEnoughPlayers)
	s.metrics.LogicError(reason)
	log.Debug("start refused", zap.Int("active", len(sess.ActiveMemberIDs())))

	message := fmt.Sprintf("Need at least %d players to start a game.", minPlayers)
	s.broadcast(log, sess.MemberIDs(), NewLogicError(message))
}

func (s *gameServiceImpl) handlePlayColumn(log *zap.Logger, clientID string, column int) {
	sessionID, ok := s.sessions.FindByMember(clientID)
	if !ok {
		s.rejectLogic(log, clientID, session.ErrNotMember)
		return
	}
	log = log.With(zap.String("session_id", sessionID))

	err := s.sessions.WithGame(sessionID, func(sess *session.Session, game *engine.Game) error {
		result, err := game.Play(clientID, column)
		if err != nil {
			return err
		}
		s.metrics.Play()

		members := sess.MemberIDs()
		if result.Win || result.Draw {
			s.metrics.GameFinished()
			log.Info("game ended",
				zap.String("winner", game.Winner()),
				zap.Bool("draw", result.Draw),
				zap.Int("plays", game.Plays()))
			s.broadcast(log, members, NewGameEnded(sess.ID, game.Winner(), game.FullView()))
			return nil
		}

		for _, id := range members {
			s.send(log, id, NewTurnStart(sess.ID, result.NextPlayer, game.View(id)))
		}
		return nil
	})
	if err != nil {
		s.rejectLogic(log, clientID, err)
	}
}

// rejectLogic answers the requester, and only the requester, with a
// LogicError describing err.
func (s *gameServiceImpl) rejectLogic(log *zap.Logger, clientID string, err error) {
	reason, message := logicError(err)
	s.metrics.LogicError(reason)

	if reason == "internal" {
		log.Error("command failed", zap.Error(err))
	} else {
		log.Debug("command rejected", zap.String("reason", reason), zap.Error(err))
	}
	s.send(log, clientID, NewLogicError(message))
}

func (s *gameServiceImpl) send(log *zap.Logger, clientID string, event ServerEvent) {
	frame, err := event.Encode()
	if err != nil {
		log.Error("failed to encode event", zap.Stringer("event", event.EventCode), zap.Error(err))
		return
	}
	s.deliver(log, clientID, event.EventCode, frame)
}

// broadcast encodes event once and queues it for every recipient. A failed
// recipient does not stop delivery to the rest.
func (s *gameServiceImpl) broadcast(log *zap.Logger, recipients []string, event ServerEvent) {
	frame, err := event.Encode()
	if err != nil {
		log.Error("failed to encode event", zap.Stringer("event", event.EventCode), zap.Error(err))
		return
	}
	for _, id := range recipients {
		s.deliver(log, id, event.EventCode, frame)
	}
}

func (s *gameServiceImpl) deliver(log *zap.Logger, clientID string, code ServerEventCode, frame []byte) {
	err := s.clients.Send(clientID, frame)
	switch {
	case err == nil:
		s.metrics.EventSent(code.String())
	case errors.Is(err, session.ErrClientNotFound):
		log.Debug("recipient not connected", zap.String("recipient", clientID), zap.Stringer("event", code))
	default:
		s.metrics.DeliveryFailed()
		log.Warn("failed to deliver event",
			zap.String("recipient", clientID),
			zap.Stringer("event", code),
			zap.Error(err))
	}
}
