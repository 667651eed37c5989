package forensic

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// pdfDateRe matches the classic PDF date token: a compact numeric form
// D:YYYYMMDDHHmmSS with optional trailing components, optionally followed
// by an offset (+HH'mm', -HH'mm') or Z.
var pdfDateRe = regexp.MustCompile(
	`D:(\d{4})(\d{2})?(\d{2})?(\d{2})?(\d{2})?(\d{2})?(?:([+\-Z])(?:(\d{2})'?(\d{2})?'?)?)?`)

// ParsePDFDate parses a PDF date token. The second return value reports
// whether the token carried timezone information; naive tokens come back
// in time.UTC but must never be treated as UTC-anchored facts.
func ParsePDFDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	m := pdfDateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false, fmt.Errorf("not a PDF date token: %q", s)
	}

	atoi := func(v string, def int) int {
		if v == "" {
			return def
		}
		n, _ := strconv.Atoi(v)
		return n
	}

	year := atoi(m[1], 0)
	month := atoi(m[2], 1)
	day := atoi(m[3], 1)
	hour := atoi(m[4], 0)
	minute := atoi(m[5], 0)
	second := atoi(m[6], 0)

	switch m[7] {
	case "":
		// Compact numeric form: always timezone-naive.
		return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), false, nil
	case "Z":
		return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), true, nil
	default:
		offset := atoi(m[8], 0)*3600 + atoi(m[9], 0)*60
		if m[7] == "-" {
			offset = -offset
		}
		loc := time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", m[7], atoi(m[8], 0), atoi(m[9], 0)), offset)
		return time.Date(year, time.Month(month), day, hour, minute, second, 0, loc), true, nil
	}
}

// ParseMetadataDate parses timestamp strings as the external metadata tool
// emits them: "2006:01:02 15:04:05" with an optional offset or Z, or an
// ISO-8601/XMP form. The second return value reports timezone awareness.
func ParseMetadataDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, fmt.Errorf("empty timestamp")
	}

	aware := []string{
		"2006:01:02 15:04:05-07:00",
		"2006:01:02 15:04:05Z07:00",
		"2006:01:02 15:04:05Z",
		time.RFC3339,
		"2006-01-02T15:04:05-07:00",
	}
	for _, layout := range aware {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, nil
		}
	}

	naive := []string{
		"2006:01:02 15:04:05",
		"2006-01-02T15:04:05",
		"2006:01:02",
		"2006-01-02",
	}
	for _, layout := range naive {
		if t, err := time.Parse(layout, s); err == nil {
			return t, false, nil
		}
	}

	// Some fields carry PDF date tokens verbatim.
	if t, awareTok, err := ParsePDFDate(s); err == nil {
		return t, awareTok, nil
	}

	return time.Time{}, false, fmt.Errorf("unrecognized timestamp: %q", s)
}

// SameInstant compares two timestamps at second granularity when both carry
// time-of-day information, day granularity otherwise.
func SameInstant(a, b time.Time, dayOnly bool) bool {
	if dayOnly {
		ay, am, ad := a.Date()
		by, bm, bd := b.Date()
		return ay == by && am == bm && ad == bd
	}
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}
