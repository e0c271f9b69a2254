package classifier

import (
	"regexp"
	"strconv"
	"time"
)

type deadlineKind int

const (
	fullDate deadlineKind = iota
	monthDay
	dayOnly
	today
	tomorrow
	thisWeek
	nextWeek
)

type deadlineRule struct {
	re   *regexp.Regexp
	kind deadlineKind
}

// deadlineGrammar is tried in order; the first rule that matches anywhere in
// the text decides the deadline.
var deadlineGrammar = []deadlineRule{
	{regexp.MustCompile(`(\d{4})[年/\-](\d{1,2})[月/\-](\d{1,2})日?`), fullDate},
	{regexp.MustCompile(`(\d{1,2})[月/](\d{1,2})日?`), monthDay},
	{regexp.MustCompile(`(\d{1,2})日`), dayOnly},
	{regexp.MustCompile(`今日`), today},
	{regexp.MustCompile(`明日`), tomorrow},
	{regexp.MustCompile(`今週`), thisWeek},
	{regexp.MustCompile(`来週`), nextWeek},
}

// extractDeadline resolves the first deadline expression in text to 23:59:59
// local time. Invalid calendar dates yield nil.
func extractDeadline(text string, now time.Time) *time.Time {
	text = fold(text)
	for _, rule := range deadlineGrammar {
		m := rule.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return resolveDeadline(rule.kind, m, now)
	}
	return nil
}

func resolveDeadline(kind deadlineKind, m []string, now time.Time) *time.Time {
	loc := now.Location()
	y, mo, d := now.Date()

	switch kind {
	case fullDate:
		return calendarDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), loc)
	case monthDay:
		t := calendarDate(y, atoi(m[1]), atoi(m[2]), loc)
		if t != nil && t.Before(now) {
			t = calendarDate(y+1, atoi(m[1]), atoi(m[2]), loc)
		}
		return t
	case dayOnly:
		t := calendarDate(y, int(mo), atoi(m[1]), loc)
		if t != nil && t.Before(now) {
			next := time.Date(y, mo+1, 1, 0, 0, 0, 0, loc)
			t = calendarDate(next.Year(), int(next.Month()), atoi(m[1]), loc)
		}
		return t
	case today:
		return endOfDay(y, mo, d, loc)
	case tomorrow:
		return endOfDay(y, mo, d+1, loc)
	case thisWeek:
		return endOfDay(y, mo, d+daysUntilSunday(now), loc)
	case nextWeek:
		return endOfDay(y, mo, d+daysUntilSunday(now)+7, loc)
	}
	return nil
}

// calendarDate is endOfDay for an explicit date; impossible dates such as
// 2/30 return nil instead of rolling over.
func calendarDate(y, mo, d int, loc *time.Location) *time.Time {
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return nil
	}
	t := endOfDay(y, time.Month(mo), d, loc)
	if t.Month() != time.Month(mo) || t.Day() != d {
		return nil
	}
	return t
}

// endOfDay normalises relative offsets (d+1 past month end is fine).
func endOfDay(y int, mo time.Month, d int, loc *time.Location) *time.Time {
	t := time.Date(y, mo, d, 23, 59, 59, 0, loc)
	return &t
}

func daysUntilSunday(now time.Time) int {
	return (7 - int(now.Weekday())) % 7
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
