package remindme

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidFormat is returned for a remindme message that cannot be
// parsed.
var ErrInvalidFormat = errors.New("remindme: invalid reminder format")

const (
	isoPattern  = `2[0-2][0-9][0-9]-[0-1][0-9]-[0-3][0-9]T[0-2][0-9]:[0-5][0-9]:[0-5][0-9]`
	enUSPattern = `(Sunday|Monday|Tuesday|Wednesday|Thursday|Friday|Saturday), ` +
		`(Jan(uary)?|Feb(ruary)?|Mar(ch)?|Apr(il)?|May|Jun(e)?|Jul(y)?|Aug(ust)?|` +
		`Sep(tember)?|Oct(ober)?|Nov(ember)?|Dec(ember)?) ` +
		`[0-3][0-9], 2[0-9][0-9][0-9] at [0-1][0-9]:[0-5][0-9]:[0-5][0-9] ?(A|P)M`
)

// EnUSLayout is the layout confirmations are written in.
const EnUSLayout = "Monday, January 02, 2006 at 03:04:05 PM"

var layouts = []string{
	"2006-01-02T15:04:05",
	EnUSLayout,
	"Monday, January 02, 2006 at 03:04:05PM",
	"Monday, Jan 02, 2006 at 03:04:05 PM",
	"Monday, Jan 02, 2006 at 03:04:05PM",
}

var messagePattern = regexp.MustCompile(
	`(?i)remindme: (?P<reminder>.*) on (?P<datetime>(` + enUSPattern + `|` + isoPattern + `))`)

// Request is a parsed remindme message.
type Request struct {
	Reminder string
	At       time.Time
}

// Parse reads "remindme: <reminder> on <date>" where the date is either
// ISO 8601 without a zone or the long US English form. Dates are read in
// loc.
func Parse(content string, loc *time.Location) (*Request, error) {
	m := messagePattern.FindStringSubmatch(content)
	if m == nil {
		return nil, ErrInvalidFormat
	}

	at, ok := parseDate(m[messagePattern.SubexpIndex("datetime")], loc)
	if !ok {
		return nil, ErrInvalidFormat
	}

	return &Request{Reminder: m[messagePattern.SubexpIndex("reminder")], At: at}, nil
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	// time.Parse wants the meridiem upper case.
	if n := len(s); n > 2 {
		s = s[:n-2] + strings.ToUpper(s[n-2:])
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsRequest reports whether the message is addressed to the app at all.
func IsRequest(content string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(content)), "remindme:")
}
