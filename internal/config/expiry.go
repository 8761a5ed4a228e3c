package config

import (
	"regexp"
	"strconv"
	"time"
)

var expiryPattern = regexp.MustCompile(`(\d+)([mhd])`)

// ParseExpiry interprets lifetimes written as `<integer><unit>` where the
// unit is m (minutes), h (hours) or d (days). The first match anywhere in the
// string wins, mirroring how the token lifetimes have always been configured.
func ParseExpiry(s string) (time.Duration, bool) {
	match := expiryPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	switch match[2] {
	case "m":
		return time.Duration(n) * time.Minute, true
	case "h":
		return time.Duration(n) * time.Hour, true
	case "d":
		return time.Duration(n) * 24 * time.Hour, true
	}
	return 0, false
}
