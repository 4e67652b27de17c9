package main

import (
	"context"
	"math/rand/v2"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/connect-in-the-dark/api"
	"github.com/wricardo/connect-in-the-dark/game/engine"
	"github.com/wricardo/connect-in-the-dark/game/service"
	"github.com/wricardo/connect-in-the-dark/game/session"
	"github.com/wricardo/connect-in-the-dark/transport/websocket"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := service.NewGameService(session.NewManager(nil), session.NewClientRegistry(), nil, service.WithLogger(logger))
	hub := websocket.NewHub(svc, websocket.WithLogger(logger))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	ts := httptest.NewServer(api.NewServer(svc, hub, api.WithLogger(logger)))
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return ts
}

func TestMatchRun(t *testing.T) {
	ts := startServer(t)

	for _, players := range []int{2, 3} {
		m := match{baseURL: ts.URL, name: "m" + string(rune('0'+players)), players: players, logger: zaptest.NewLogger(t), seed: 42}
		result, err := m.run(context.Background())
		require.NoError(t, err)

		assert.Len(t, result.SessionID, session.IDLength)
		assert.GreaterOrEqual(t, result.Plays, 2*engine.DefaultRun-1)
		assert.LessOrEqual(t, result.Plays, engine.DefaultWidth*engine.DefaultHeight)
		if result.Draw {
			assert.Empty(t, result.Winner)
			assert.Equal(t, engine.DefaultWidth*engine.DefaultHeight, result.Plays)
		} else {
			assert.Contains(t, result.Winner, m.name+"-p")
		}
	}
}

func TestMatchRunNeedsTwoPlayers(t *testing.T) {
	_, err := match{baseURL: "http://127.0.0.1:1", players: 1, logger: zaptest.NewLogger(t)}.run(context.Background())
	assert.Error(t, err)
}

func TestMatchRunUnreachable(t *testing.T) {
	_, err := match{baseURL: "http://127.0.0.1:1", players: 2, name: "x", logger: zaptest.NewLogger(t)}.run(context.Background())
	assert.Error(t, err)
}

func TestChooseColumn(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	board := engine.NewBoard(3, 2)
	board[0][1] = engine.OwnedBy(0)
	board[2][1] = engine.UnknownCell()

	for i := 0; i < 20; i++ {
		column, err := chooseColumn(&engine.GameView{PlayIndexes: board}, rng)
		require.NoError(t, err)
		assert.Equal(t, 1, column, "only column 1 has room")
	}

	board[1][1] = engine.UnknownCell()
	_, err := chooseColumn(&engine.GameView{PlayIndexes: board}, rng)
	assert.ErrorIs(t, err, errNoColumn)

	_, err = chooseColumn(nil, rng)
	assert.ErrorIs(t, err, errNoColumn)
}

func TestWSURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8000", "ws://localhost:8000/api/ws/bot1"},
		{"https://example.ngrok.app/", "wss://example.ngrok.app/api/ws/bot1"},
		{"ws://127.0.0.1:9000", "ws://127.0.0.1:9000/api/ws/bot1"},
	}
	for _, tt := range tests {
		got, err := wsURL(tt.base, "bot1")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSummary(t *testing.T) {
	var s summary
	s.record(Result{Plays: 10, Draw: true}, nil)
	s.record(Result{Plays: 7}, nil)
	s.record(Result{}, assert.AnError)

	assert.Equal(t, 2, s.played)
	assert.Equal(t, 1, s.failed)
	assert.Equal(t, 1, s.draws)
	assert.Equal(t, 17, s.plays)
}
