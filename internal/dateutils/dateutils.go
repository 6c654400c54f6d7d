// Package dateutils provides date parsing and formatting for ticket data.
// Tickets print dates as DD/MM/YYYY HH:MM; manual entry accepts abbreviated
// forms like "20/2/26 9:5".
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Layouts used throughout the application.
const (
	LayoutTicket = "02/01/2006 15:04"
	LayoutISO    = "2006-01-02 15:04"
	LayoutDay    = "2006-01-02"
	LayoutMonth  = "2006-01"
)

// ParseTicketDate parses the date/time stamp as printed on a ticket.
func ParseTicketDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(LayoutTicket, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse ticket date: %s", dateStr)
	}
	return t, nil
}

// ParseFlexible parses a manually entered date. Accepted forms:
//
//	20/2/26        → 2026-02-20 00:00
//	20/2/2026 10:5 → 2026-02-20 10:05
//	20/02/2026     → 2026-02-20 00:00
//
// Two-digit years are taken as 20xx. The time part is optional.
func ParseFlexible(val string) (time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	parts := strings.Fields(val)
	dateStr := parts[0]
	timeStr := "0:0"
	if len(parts) > 1 {
		timeStr = parts[1]
	}

	dmy := strings.Split(dateStr, "/")
	if len(dmy) != 3 {
		return time.Time{}, fmt.Errorf("unable to parse date: %s", val)
	}
	day := zeroPad(dmy[0])
	month := zeroPad(dmy[1])
	year := dmy[2]
	switch len(year) {
	case 2:
		year = "20" + year
	case 4:
	default:
		return time.Time{}, fmt.Errorf("unable to parse year in date: %s", val)
	}

	hm := strings.Split(timeStr, ":")
	if len(hm) != 2 {
		hm = []string{"0", "0"}
	}
	hour := zeroPad(hm[0])
	minute := zeroPad(hm[1])

	t, err := time.Parse(LayoutTicket, fmt.Sprintf("%s/%s/%s %s:%s", day, month, year, hour, minute))
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date: %s", val)
	}
	return t, nil
}

// MonthKey returns the YYYY-MM grouping key for a date.
func MonthKey(t time.Time) string {
	return t.Format(LayoutMonth)
}

// ToISO formats a date as YYYY-MM-DD HH:MM, the storage representation.
func ToISO(t time.Time) string {
	return t.Format(LayoutISO)
}

func zeroPad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
