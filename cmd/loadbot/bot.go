package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/connect-in-the-dark/game/engine"
	"github.com/wricardo/connect-in-the-dark/game/service"
)

const readTimeout = 10 * time.Second

var errNoColumn = errors.New("no playable column")

// Result summarizes one finished match
type Result struct {
	SessionID string
	Winner    string
	Draw      bool
	Plays     int
	Duration  time.Duration
}

// bot is one websocket player
type bot struct {
	id     string
	conn   *websocket.Conn
	logger *zap.Logger
	rng    *rand.Rand
	delay  time.Duration
}

func wsURL(base, clientID string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path += "/api/ws/" + url.PathEscape(clientID)
	return u.String(), nil
}

func dial(ctx context.Context, base, clientID string, logger *zap.Logger, seed uint64) (*bot, error) {
	target, err := wsURL(base, clientID)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", clientID, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", clientID, err)
	}
	return &bot{
		id:     clientID,
		conn:   conn,
		logger: logger.With(zap.String("bot", clientID)),
		rng:    rand.New(rand.NewPCG(seed, uint64(len(clientID)))),
	}, nil
}

func (b *bot) close() {
	b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	b.conn.Close()
}

func (b *bot) send(event service.ClientEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *bot) next() (service.ServerEvent, error) {
	var event service.ServerEvent
	b.conn.SetReadDeadline(time.Now().Add(readTimeout))
	_, data, err := b.conn.ReadMessage()
	if err != nil {
		return event, err
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("decode %q: %w", data, err)
	}
	b.logger.Debug("event", zap.Stringer("code", event.EventCode))
	return event, nil
}

// chooseColumn picks a random column whose top cell is empty in view.
// Hidden tokens still show as unknown, so the pick is always legal.
func chooseColumn(view *engine.GameView, rng *rand.Rand) (int, error) {
	if view == nil {
		return 0, errNoColumn
	}
	var open []int
	for column, cells := range view.PlayIndexes {
		if len(cells) > 0 && cells[len(cells)-1].IsEmpty() {
			open = append(open, column)
		}
	}
	if len(open) == 0 {
		return 0, errNoColumn
	}
	return open[rng.IntN(len(open))], nil
}

// play answers events until the game ends. The host starts the game once
// every expected player has joined.
func (b *bot) play(host bool, players int, result *Result) error {
	started := false
	for {
		event, err := b.next()
		if err != nil {
			return fmt.Errorf("%s: %w", b.id, err)
		}

		switch event.EventCode {
		case service.ClientJoined:
			if host && !started && len(event.Data.SessionClientIDs) == players {
				started = true
				if err := b.send(service.ClientEvent{EventCode: service.StartGame}); err != nil {
					return err
				}
			}
		case service.TurnStart:
			if event.Data.ClientID != b.id {
				continue
			}
			if b.delay > 0 {
				time.Sleep(b.delay)
			}
			column, err := chooseColumn(event.Data.GameData, b.rng)
			if err != nil {
				return fmt.Errorf("%s: %w", b.id, err)
			}
			if err := b.send(service.ClientEvent{
				EventCode: service.PlayColumn,
				Data:      &service.ClientEventData{Column: &column},
			}); err != nil {
				return err
			}
		case service.LogicError:
			return fmt.Errorf("%s: server refused: %s", b.id, event.Message)
		case service.GameEnded:
			if host {
				result.Winner = event.Data.ClientID
				result.Draw = event.Data.ClientID == ""
				result.Plays = countTokens(event.Data.GameData)
			}
			return nil
		}
	}
}

func countTokens(view *engine.GameView) int {
	if view == nil {
		return 0
	}
	n := 0
	for _, column := range view.PlayIndexes {
		for _, cell := range column {
			if !cell.IsEmpty() {
				n++
			}
		}
	}
	return n
}

// match is one room full of bots
type match struct {
	baseURL string
	name    string
	players int
	delay   time.Duration
	logger  *zap.Logger
	seed    uint64
}

// run connects the bots, has the first one create a room, joins the rest
// and plays random legal columns until the server announces the end.
func (m match) run(ctx context.Context) (Result, error) {
	start := time.Now()
	var result Result
	if m.players < 2 {
		return result, errors.New("a match needs at least two players")
	}

	bots := make([]*bot, 0, m.players)
	defer func() {
		for _, b := range bots {
			b.close()
		}
	}()
	for i := 0; i < m.players; i++ {
		b, err := dial(ctx, m.baseURL, fmt.Sprintf("%s-p%d", m.name, i+1), m.logger, m.seed+uint64(i))
		if err != nil {
			return result, err
		}
		b.delay = m.delay
		bots = append(bots, b)
	}

	host := bots[0]
	if err := host.send(service.ClientEvent{EventCode: service.CreateSession}); err != nil {
		return result, err
	}
	created, err := host.next()
	if err != nil {
		return result, err
	}
	if created.EventCode != service.ClientJoined {
		return result, fmt.Errorf("create session: unexpected %s", created.EventCode)
	}
	result.SessionID = created.Data.SessionID

	g, ctx := errgroup.WithContext(ctx)
	for i, b := range bots {
		isHost := i == 0
		g.Go(func() error {
			if !isHost {
				sessionID := result.SessionID
				if err := b.send(service.ClientEvent{
					EventCode: service.JoinSession,
					Data:      &service.ClientEventData{SessionID: &sessionID},
				}); err != nil {
					return err
				}
			}
			return b.play(isHost, m.players, &result)
		})
	}
	go func() {
		<-ctx.Done()
		// Unblock readers when a sibling fails
		for _, b := range bots {
			b.conn.SetReadDeadline(time.Now())
		}
	}()

	if err := g.Wait(); err != nil {
		return result, err
	}
	result.Duration = time.Since(start)
	return result, nil
}
