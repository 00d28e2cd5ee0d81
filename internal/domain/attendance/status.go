package attendance

import (
	"strings"
	"unicode"
)

// Status is the normalized attendance status of a single day.
type Status string

const (
	StatusPresent     Status = "Present"
	StatusAbsent      Status = "Absent"
	StatusLeave       Status = "Leave"
	StatusHalfDay     Status = "Half Day"
	StatusUnpaidLeave Status = "Unpaid Leave"
)

// AllStatuses returns every recognized status in display order.
func AllStatuses() []Status {
	return []Status{StatusPresent, StatusAbsent, StatusLeave, StatusHalfDay, StatusUnpaidLeave}
}

var statusByKey = map[string]Status{
	"present":     StatusPresent,
	"absent":      StatusAbsent,
	"leave":       StatusLeave,
	"halfday":     StatusHalfDay,
	"unpaidleave": StatusUnpaidLeave,
}

// NormalizeStatus lowercases s and strips every whitespace rune,
// so "Half Day", "HALFDAY" and "half  day" share the key "halfday".
func NormalizeStatus(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ParseStatus maps a free-form status string onto a Status.
func ParseStatus(s string) (Status, bool) {
	status, ok := statusByKey[NormalizeStatus(s)]
	return status, ok
}

// String returns the canonical label.
func (s Status) String() string {
	return string(s)
}

const (
	defaultStatusColor     = "bg-gray-300"
	defaultStatusTextColor = "text-gray-700"
)

var statusColors = map[Status]string{
	StatusPresent:     "bg-green-500",
	StatusAbsent:      "bg-red-500",
	StatusLeave:       "bg-blue-500",
	StatusHalfDay:     "bg-yellow-500",
	StatusUnpaidLeave: "bg-orange-500",
}

var statusTextColors = map[Status]string{
	StatusPresent:     "text-green-700",
	StatusAbsent:      "text-red-700",
	StatusLeave:       "text-blue-700",
	StatusHalfDay:     "text-yellow-700",
	StatusUnpaidLeave: "text-orange-700",
}

// StatusColor returns the background style token for a status label.
func StatusColor(s string) string {
	if status, ok := ParseStatus(s); ok {
		return statusColors[status]
	}
	return defaultStatusColor
}

// StatusTextColor returns the text style token for a status label.
func StatusTextColor(s string) string {
	if status, ok := ParseStatus(s); ok {
		return statusTextColors[status]
	}
	return defaultStatusTextColor
}
