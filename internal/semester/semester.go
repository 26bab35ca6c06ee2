// Package semester implements the review edit-window policy. A review may
// be edited or deleted by its author only until the end of the semester it
// describes; afterwards it is locked.
package semester

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Season end months: the last calendar month in which a review for that
// semester is still editable.
var seasonEndMonth = map[string]time.Month{
	"Spring": time.May,
	"Summer": time.August,
	"Fall":   time.December,
	"Winter": time.February,
}

// Semester is a parsed "<Season> <Year>" label.
type Semester struct {
	Season string
	Year   int
}

// Parse validates a semester label such as "Fall 2024".
func Parse(label string) (Semester, error) {
	parts := strings.Fields(strings.TrimSpace(label))
	if len(parts) != 2 {
		return Semester{}, fmt.Errorf("semester %q: want \"<Season> <Year>\"", label)
	}
	if _, ok := seasonEndMonth[parts[0]]; !ok {
		return Semester{}, fmt.Errorf("semester %q: unknown season %q", label, parts[0])
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || year < 1900 || year > 9999 {
		return Semester{}, fmt.Errorf("semester %q: invalid year", label)
	}
	return Semester{Season: parts[0], Year: year}, nil
}

// EndMonth returns the last editable month for the semester's season.
func (s Semester) EndMonth() time.Month {
	return seasonEndMonth[s.Season]
}

// Editable reports whether a review for the given semester label may still
// be modified at the given time. Malformed labels are locked: a parse
// failure must never grant an indefinite edit window.
func Editable(label string, now time.Time) bool {
	sem, err := Parse(label)
	if err != nil {
		return false
	}
	if sem.Year < now.Year() {
		return false
	}
	if sem.Year == now.Year() && now.Month() > sem.EndMonth() {
		return false
	}
	return true
}
