// Command loadbot drives a running Connect in the Dark server with bots.
// Each match connects a room full of websocket players that create, join,
// start and play random legal columns until the game ends.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/connect-in-the-dark/logger"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "loadbot",
		Usage: "Play bot matches against a Connect in the Dark server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8000", Usage: "Game server URL", Sources: cli.EnvVars("LOADBOT_URL")},
			&cli.IntFlag{Name: "matches", Value: 1, Usage: "Matches to play concurrently"},
			&cli.IntFlag{Name: "rounds", Value: 1, Usage: "Matches each worker plays in a row"},
			&cli.IntFlag{Name: "players", Value: 2, Usage: "Bots per match"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause before each play"},
			&cli.StringFlag{Name: "prefix", Value: "bot", Usage: "Client id prefix"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: run,
	}
}

// summary aggregates results across workers
type summary struct {
	mu       sync.Mutex
	played   int
	failed   int
	draws    int
	plays    int
	duration time.Duration
}

func (s *summary) record(r Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failed++
		return
	}
	s.played++
	s.plays += r.Plays
	s.duration += r.Duration
	if r.Draw {
		s.draws++
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	level := "info"
	if cmd.Bool("v") {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, Format: "console"})
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers := int(cmd.Int("matches"))
	rounds := int(cmd.Int("rounds"))
	players := int(cmd.Int("players"))
	prefix := cmd.String("prefix")
	log.Info("starting bots",
		zap.String("url", cmd.String("url")),
		zap.Int("matches", workers),
		zap.Int("rounds", rounds),
		zap.Int("players", players))

	var stats summary
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds && ctx.Err() == nil; r++ {
				m := match{
					baseURL: cmd.String("url"),
					name:    fmt.Sprintf("%s%d-%d", prefix, w+1, r+1),
					players: players,
					delay:   cmd.Duration("delay"),
					logger:  log,
					seed:    uint64(time.Now().UnixNano()),
				}
				result, err := m.run(ctx)
				stats.record(result, err)
				if err != nil {
					log.Warn("match failed", zap.String("match", m.name), zap.Error(err))
					continue
				}
				log.Info("match finished",
					zap.String("match", m.name),
					zap.String("session", result.SessionID),
					zap.String("winner", result.Winner),
					zap.Bool("draw", result.Draw),
					zap.Int("plays", result.Plays),
					zap.Duration("duration", result.Duration))
			}
		}()
	}
	wg.Wait()

	avg := time.Duration(0)
	if stats.played > 0 {
		avg = stats.duration / time.Duration(stats.played)
	}
	log.Info("done",
		zap.Int("played", stats.played),
		zap.Int("failed", stats.failed),
		zap.Int("draws", stats.draws),
		zap.Int("plays", stats.plays),
		zap.Duration("avg_duration", avg))

	if stats.failed > 0 {
		return fmt.Errorf("%d of %d matches failed", stats.failed, stats.failed+stats.played)
	}
	return nil
}
