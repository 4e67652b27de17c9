package main

import (
	"strings"
	"testing"

	"github.com/wricardo/connect-in-the-dark/game/engine"
	"github.com/wricardo/connect-in-the-dark/game/service"
)

func TestAnalyzeClassic(t *testing.T) {
	a := analyze(service.NewConfigInfo("classic", engine.DefaultConfig()))

	if a.Cells != 42 {
		t.Errorf("Expected 42 cells, got %d", a.Cells)
	}
	want := [4]int{21, 24, 12, 12}
	if a.Lines != want {
		t.Errorf("Expected lines %v, got %v", want, a.Lines)
	}
	if a.Tokens[2] != 21 {
		t.Errorf("Expected 21 tokens each for two players, got %d", a.Tokens[2])
	}
	if a.FirstWin != 7 {
		t.Errorf("Expected the earliest win on play 7, got %d", a.FirstWin)
	}
}

func TestAnalyzePlayerRange(t *testing.T) {
	a := analyze(&service.ConfigInfo{Name: "wide", Width: 9, Height: 7, RunLength: 5, MinPlayers: 2, MaxPlayers: 4})

	if len(a.Tokens) != 3 {
		t.Fatalf("Expected token counts for 2, 3 and 4 players, got %v", a.Tokens)
	}
	if a.Tokens[4] != 16 {
		t.Errorf("Expected 16 tokens each for four players, got %d", a.Tokens[4])
	}
}

func TestReport(t *testing.T) {
	var b strings.Builder
	report(&b, analyze(service.NewConfigInfo("classic", engine.DefaultConfig())))

	out := b.String()
	for _, want := range []string{"Winning lines: 69", "vertical:", "2 players: up to 21 tokens each", "Earliest win: play 7"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "WARNING") {
		t.Error("Classic board should not warn")
	}
}
