package dateinput

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

var offsetRe = regexp.MustCompile(`^(?:in )?\+?(\d+)(?: ?d| ?days?)?$`)

var absoluteFormats = []string{
	"2/1/06",
	"2/1/2006",
	"2006-01-02",
	"2 Jan 2006",
	"2 January 2006",
}

// Parse turns a human deadline ("today", "tomorrow", "3d", "fri",
// "20/04/26") into a concrete day, anchored at now. Returns nil when the
// input doesn't parse; empty input is nil too (no deadline).
func Parse(s string, now time.Time) *time.Time {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	day := startOfDay(now)

	switch s {
	case "today", "tod":
		return &day
	case "tomorrow", "tom":
		t := day.AddDate(0, 0, 1)
		return &t
	}

	if w, ok := weekdays[s]; ok {
		days := int(w - day.Weekday())
		if days <= 0 {
			days += 7
		}
		t := day.AddDate(0, 0, days)
		return &t
	}

	if m := offsetRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		t := day.AddDate(0, 0, n)
		return &t
	}

	for _, layout := range absoluteFormats {
		if t, err := time.Parse(layout, titleCase(s)); err == nil {
			return &t
		}
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// titleCase uppercases month names so "20 apr 2026" matches "2 Jan 2006".
func titleCase(s string) string {
	parts := strings.Fields(s)
	for i, p := range parts {
		if len(p) > 0 && p[0] >= 'a' && p[0] <= 'z' {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
