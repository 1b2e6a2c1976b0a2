package engine

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"skyops/internal/domain"
	"skyops/internal/repo"
)

const dayFormat = "2006-01-02"

// Days returns the canonical sorted list of distinct calendar days the
// deployment spans: the nominal range, every logged day, and any
// locally staged extra days. It is recomputed on every call so it
// always reflects the latest logs and staged days.
func (e *Engine) Days(sess *repo.Session) []string {
	d := sess.Deployment
	set := map[string]bool{}

	start, err := time.Parse(dayFormat, domain.DayOf(d.Date))
	if err != nil {
		e.Log.Warn("unparsable deployment start date",
			zap.String("deployment_id", d.ID),
			zap.String("date", d.Date),
		)
	} else {
		n := d.DaysOnSite
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			set[start.AddDate(0, 0, i).Format(dayFormat)] = true
		}
	}
	for _, l := range d.DailyLogs {
		set[l.Day()] = true
	}
	for day := range sess.StagedDays {
		set[day] = true
	}

	days := make([]string, 0, len(set))
	for day := range set {
		days = append(days, day)
	}
	// zero-padded YYYY-MM-DD sorts correctly as text
	sort.Strings(days)
	return days
}

// inRange reports whether day falls inside the nominal range.
func (e *Engine) inRange(d domain.Deployment, day string) bool {
	start, err := time.Parse(dayFormat, domain.DayOf(d.Date))
	if err != nil {
		return false
	}
	t, err := time.Parse(dayFormat, day)
	if err != nil {
		return false
	}
	n := d.DaysOnSite
	if n < 1 {
		n = 1
	}
	end := start.AddDate(0, 0, n-1)
	return !t.Before(start) && !t.After(end)
}

// StageDay adds a non-consecutive extra day to the open session. The
// day is local until a log backs it; opening another deployment
// discards it.
func (e *Engine) StageDay(sess *repo.Session, day string) error {
	if _, err := time.Parse(dayFormat, day); err != nil {
		return validationf("invalid day %q, expected YYYY-MM-DD", day)
	}
	sess.StagedDays[day] = true
	return nil
}

// DeleteDay removes a day from the ledger. A day with logs loses all
// of them (and its staged marker); it stays visible only if the
// nominal range still covers it. A logless in-range day cannot be
// deleted because the range is not shrinkable per day.
func (e *Engine) DeleteDay(ctx context.Context, sess *repo.Session, day string) error {
	logs := logsForDay(sess.Deployment, day)
	if len(logs) > 0 {
		if err := e.DeleteAllForDay(ctx, sess, day); err != nil {
			return err
		}
		delete(sess.StagedDays, day)
		return nil
	}
	if sess.StagedDays[day] {
		delete(sess.StagedDays, day)
		return nil
	}
	if e.inRange(sess.Deployment, day) {
		return validationf("day %s is part of the scheduled range; adjust days on site or the start date instead", day)
	}
	return validationf("day %s is not part of this deployment", day)
}

func logsForDay(d domain.Deployment, day string) []domain.DailyLog {
	var out []domain.DailyLog
	for _, l := range d.DailyLogs {
		if l.Day() == day {
			out = append(out, l)
		}
	}
	return out
}
