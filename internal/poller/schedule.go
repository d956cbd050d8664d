package poller

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultInterval is the pause between the end of one cycle and the start of the next.
const DefaultInterval = 600 * time.Second

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

// ParseSchedule parses a poll schedule.
//
// Supported forms:
//   - Interval duration: "10m", "90s"
//   - Interval HH:MM: "00:10" (10 minutes)
//   - Cron: "*/10 * * * *", "@hourly", "@every 10m"
//
// An empty string yields DefaultInterval. Intervals are measured from the
// end of a cycle, not on a wall-clock tick.
func ParseSchedule(raw string) (cron.Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return cron.Every(DefaultInterval), nil
	}
	if strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@") {
		sched, err := cron.ParseStandard(s)
		if err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", raw, err)
		}
		return sched, nil
	}
	if m := reHHMM.FindStringSubmatch(s); m != nil {
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if mm > 59 {
			return nil, fmt.Errorf("invalid minutes in %q", raw)
		}
		d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
		if d <= 0 {
			return nil, fmt.Errorf("interval must be > 0")
		}
		return cron.Every(d), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf(
			"invalid schedule %q (use a duration like '10m', HH:MM like '00:10', or cron like '*/10 * * * *')",
			raw,
		)
	}
	if d < time.Second {
		return nil, fmt.Errorf("interval must be >= 1s")
	}
	return cron.Every(d), nil
}
