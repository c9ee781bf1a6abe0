package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// ServicePrefix returns the two-letter code of a service type: the first
// letter of its first two words, or its first two letters when it is a
// single word.
func ServicePrefix(serviceType string) string {
	words := strings.Fields(serviceType)
	var prefix []rune
	switch {
	case len(words) >= 2:
		prefix = append(prefix, []rune(words[0])[0], []rune(words[1])[0])
	case len(words) == 1:
		r := []rune(words[0])
		if len(r) > 2 {
			r = r[:2]
		}
		prefix = r
	}
	for i, r := range prefix {
		prefix[i] = unicode.ToUpper(r)
	}
	return string(prefix)
}

// GenerateTicketSerial builds <prefix><agent><DDMMYYYY>-<code>. The date is
// taken in loc, UTC when loc is nil.
func GenerateTicketSerial(serviceType, agentID string, timeStart time.Time, loc *time.Location, code int64) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("%s%s%s-%d", ServicePrefix(serviceType), agentID, timeStart.In(loc).Format("02012006"), code)
}
