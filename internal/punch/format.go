package punch

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/foxseedlab/bateponto/internal/timeclock"
)

// minuteEpsilon absorbs the rounding error of millis/3_600_000 so whole
// minutes are not floored one short.
const minuteEpsilon = 1e-9

// FormatHours renders fractional hours as "Xh Ym" with minutes floored.
func FormatHours(hours float64) string {
	if hours < 0 {
		hours = 0
	}
	total := int64(math.Floor(hours*60 + minuteEpsilon))
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

func FormatDuration(d time.Duration) string {
	return FormatHours(d.Hours())
}

// FormatDate renders t as dd/mm/yyyy in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02/01/2006")
}

func formatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02/01/2006 15:04")
}

func PauseLabel(n int) string {
	if n == 1 {
		return "1 pausa"
	}
	return fmt.Sprintf("%d pausas", n)
}

// RankLabel is the medal for the first three places and "n." after that.
func RankLabel(index int) string {
	switch index {
	case 0:
		return "🥇"
	case 1:
		return "🥈"
	case 2:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", index+1)
	}
}

// RecentSessionLines renders one line per session, newest first, numbered from 1.
func RecentSessionLines(sessions []timeclock.SessionSummary, loc *time.Location) string {
	var b strings.Builder
	for i, s := range sessions {
		fmt.Fprintf(&b, "**%d.** %s - %s (%s)\n", i+1, FormatDate(s.StartedAt, loc), FormatHours(s.DurationHours), PauseLabel(s.PauseCount))
	}
	return b.String()
}

// RankingLines renders the ranking; name resolves a user id to a display name.
func RankingLines(entries []timeclock.RankingEntry, name func(userID string) string) string {
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%s **%s** - %s\n", RankLabel(i), name(e.UserID), FormatHours(e.TotalHours))
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return yes
	}
	return no
}
