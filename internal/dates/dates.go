// Package dates converts the heterogeneous date and time text that theater
// sites publish ("Thu, Feb 12", "Today", "7:00pm", "19:00") into the
// canonical forms the catalog uses.
package dates

import (
	"strings"
	"time"
)

// timeLayouts are tried in order against lowercased input.
var timeLayouts = []string{"3:04pm", "3:04 pm", "15:04"}

// NormalizeTime re-renders a time string as 12-hour "H:MM AM/PM" with no
// leading zero. Unparseable input is returned unchanged; callers must
// tolerate passthrough values.
func NormalizeTime(raw string) string {
	if t, ok := ParseClock(raw); ok {
		return t.Format("3:04 PM")
	}
	return raw
}

// ParseClock parses a time-of-day string in any accepted input format.
func ParseClock(raw string) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dayNames are Monday-first so indices line up with resolved weekday offsets.
var dayNames = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

var hintLayouts = []string{"Jan 2", "January 2"}

// ResolveDate converts a source's day label and optional month-day hint into
// an ISO date, relative to ref. Priority: literal today/tomorrow, then the
// hint (reference year, rolled to the next year when the hinted month is
// more than one month behind the reference), then the next occurrence of a
// matching weekday strictly after ref, then ref itself.
func ResolveDate(label, hint string, ref time.Time) string {
	l := strings.ToLower(strings.TrimSpace(label))
	switch l {
	case "today":
		return ref.Format(time.DateOnly)
	case "tomorrow":
		return ref.AddDate(0, 0, 1).Format(time.DateOnly)
	}

	if hint != "" {
		for _, layout := range hintLayouts {
			parsed, err := time.Parse(layout, strings.TrimSpace(hint))
			if err != nil {
				continue
			}
			year := ref.Year()
			if int(ref.Month())-int(parsed.Month()) > 1 {
				year++
			}
			return time.Date(year, parsed.Month(), parsed.Day(), 0, 0, 0, 0, ref.Location()).
				Format(time.DateOnly)
		}
	}

	for i, name := range dayNames {
		if !strings.HasPrefix(l, name[:3]) {
			continue
		}
		refDow := (int(ref.Weekday()) + 6) % 7 // Monday = 0
		delta := ((i-refDow)%7 + 7) % 7
		if delta == 0 {
			// Same weekday as ref means next week; "today" was handled above.
			delta = 7
		}
		return ref.AddDate(0, 0, delta).Format(time.DateOnly)
	}

	return ref.Format(time.DateOnly)
}
