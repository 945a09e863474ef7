// Package ics renders the calendar-invite blob handed back after a booking.
// The structure (field order, CRLF line endings, UTC timestamps) is a
// compatibility contract with calendar-importing clients; change it only if
// you have verified the importers.
package ics

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Invite carries everything the VEVENT needs.
type Invite struct {
	UID           string // generated when empty
	Timestamp     time.Time
	Start         time.Time
	End           time.Time
	OwnerName     string
	OwnerEmail    string
	AttendeeName  string
	AttendeeEmail string
	MeetLink      string
	Notes         string
}

// Render produces the VCALENDAR text.
func Render(inv Invite) string {
	uid := inv.UID
	if uid == "" {
		uid = uuid.NewString()
	}
	notes := inv.Notes
	if notes == "" {
		notes = "None"
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Meet Scheduler//EN",
		"BEGIN:VEVENT",
		"UID:" + uid + "@scheduler",
		"DTSTAMP:" + utcStamp(inv.Timestamp),
		"DTSTART:" + utcStamp(inv.Start),
		"DTEND:" + utcStamp(inv.End),
		"SUMMARY:Meeting with " + inv.OwnerName,
		`DESCRIPTION:Notes: ` + notes + `\n\nJoin: ` + inv.MeetLink,
		"LOCATION:" + inv.MeetLink,
		"ORGANIZER;CN=" + inv.OwnerName + ":mailto:" + inv.OwnerEmail,
		"ATTENDEE;CN=" + inv.AttendeeName + ":mailto:" + inv.AttendeeEmail,
		"STATUS:CONFIRMED",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n")
}

// DataURL wraps the rendered invite in a data: URL for direct download.
func DataURL(content string) string {
	return "data:text/calendar;base64," + base64.StdEncoding.EncodeToString([]byte(content))
}

func utcStamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
