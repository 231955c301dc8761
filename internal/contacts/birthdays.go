package contacts

import (
	"sort"
	"time"

	dbtypes "github.com/kubitskyi/contacts-api/pkg/db/types"
)

// BirthdayWindowDays is how far ahead the lookup reaches; today counts as day zero.
const BirthdayWindowDays = 7

// NextOccurrence returns the first date on or after today on which the birthday is
// observed. The birth year is ignored; Feb 29 is observed on Mar 1 in common years.
func NextOccurrence(birthday dbtypes.Date, today time.Time) time.Time {
	start := dateOf(today)
	if d := observedIn(birthday, start.Year()); !d.Before(start) {
		return d
	}
	return observedIn(birthday, start.Year()+1)
}

// InBirthdayWindow reports whether the birthday falls within [today, today+7 days].
func InBirthdayWindow(birthday dbtypes.Date, today time.Time) bool {
	start := dateOf(today)
	end := start.AddDate(0, 0, BirthdayWindowDays)
	return !NextOccurrence(birthday, today).After(end)
}

type upcoming struct {
	dto  BirthdayDTO
	next time.Time
}

// selectUpcoming keeps the rows inside the window, ordered by upcoming date then id.
func selectUpcoming(rows []BirthdayDTO, today time.Time) []BirthdayDTO {
	matches := make([]upcoming, 0, len(rows))
	for _, row := range rows {
		if !InBirthdayWindow(row.Birthday, today) {
			continue
		}
		matches = append(matches, upcoming{dto: row, next: NextOccurrence(row.Birthday, today)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].next.Equal(matches[j].next) {
			return matches[i].next.Before(matches[j].next)
		}
		return matches[i].dto.ID < matches[j].dto.ID
	})

	out := make([]BirthdayDTO, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.dto)
	}
	return out
}

func observedIn(birthday dbtypes.Date, year int) time.Time {
	month, day := birthday.Month(), birthday.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		month, day = time.March, 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
