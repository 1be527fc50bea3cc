package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	usSlashRe   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dayMonthRe  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	looseLayout = []string{
		"Jan 2, 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"2 January 2006",
		"2006/01/02",
		"Jan 2 2006",
		time.RFC1123,
		time.RFC3339,
	}
)

// NormalizeDate converts common bank statement date formats to YYYY-MM-DD.
// Unrecognized input is returned unchanged; the function never fails.
// Canonical output is a fixed point, so normalizing twice is harmless.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
	}

	// M/D/YYYY
	if m := usSlashRe.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[3], pad2(m[1]), pad2(m[2]))
	}

	// D-M-YYYY, used by some issuers
	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[3], pad2(m[2]), pad2(m[1]))
	}

	for _, layout := range looseLayout {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}

	return raw
}

func pad2(s string) string {
	if n, err := strconv.Atoi(s); err == nil {
		return fmt.Sprintf("%02d", n)
	}
	return s
}
