package punch

import (
	"fmt"
	"testing"
	"time"

	"github.com/foxseedlab/bateponto/internal/timeclock"
)

func TestFormatHours(t *testing.T) {
	cases := map[float64]string{
		0:         "0h 0m",
		1.5:       "1h 30m",
		2.999:     "2h 59m",
		0.25:      "0h 15m",
		10.0 / 3:  "3h 20m",
		-1:        "0h 0m",
		65.0 / 60: "1h 5m",
		61.0 / 60: "1h 1m",
	}
	for in, want := range cases {
		if got := FormatHours(in); got != want {
			t.Errorf("FormatHours(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatHours_WholeMinutesFromMillis(t *testing.T) {
	for m := int64(0); m < 600; m++ {
		hours := float64(m*60_000) / 3_600_000
		want := fmt.Sprintf("%dh %dm", m/60, m%60)
		if got := FormatHours(hours); got != want {
			t.Fatalf("%d minutes: FormatHours(%v) = %q, want %q", m, hours, got, want)
		}
	}
}

func TestFormatDate_UsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	ts := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	if got := FormatDate(ts, loc); got != "01/03/2026" {
		t.Fatalf("expected previous day in Sao Paulo, got %s", got)
	}
	if got := FormatDate(ts, time.UTC); got != "02/03/2026" {
		t.Fatalf("unexpected UTC date: %s", got)
	}
}

func TestRankLabel(t *testing.T) {
	want := []string{"🥇", "🥈", "🥉", "4.", "10."}
	for i, idx := range []int{0, 1, 2, 3, 9} {
		if got := RankLabel(idx); got != want[i] {
			t.Errorf("RankLabel(%d) = %q, want %q", idx, got, want[i])
		}
	}
}

func TestPauseLabel(t *testing.T) {
	if PauseLabel(1) != "1 pausa" || PauseLabel(0) != "0 pausas" || PauseLabel(3) != "3 pausas" {
		t.Fatal("unexpected pause labels")
	}
}

func TestRecentSessionLines(t *testing.T) {
	got := RecentSessionLines([]timeclock.SessionSummary{
		{StartedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), DurationHours: 1.5, PauseCount: 1},
	}, time.UTC)
	if got != "**1.** 02/03/2026 - 1h 30m (1 pausa)\n" {
		t.Fatalf("unexpected lines: %q", got)
	}
}
