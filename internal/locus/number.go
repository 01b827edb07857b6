package locus

import (
	"regexp"
	"strconv"
	"strings"
)

// Word units must be checked before bare suffixes so that "kb" is not read
// as a K-suffixed "b".
var (
	megabaseRe = regexp.MustCompile(`^(.+?)\s*(?:megabases?|mb)$`)
	kilobaseRe = regexp.MustCompile(`^(.+?)\s*(?:kilobases?|kb)$`)
)

// coordinate is a parsed coordinate token. Plain integers ("10000001") are
// 1-based positions; unit-scaled values ("10 megabases", "1.5M", "1e6")
// denote exact base-pair boundaries and skip the 1-based adjustment.
type coordinate struct {
	bp       int64
	boundary bool
}

// parseCoordinate converts a coordinate token to base pairs. It accepts
// thousands separators ("1,000,000"), K/M suffixes ("1.5M"), the unit words
// kilobase(s)/kb and megabase(s)/mb, and scientific notation ("1e6").
func parseCoordinate(token string) (coordinate, bool) {
	s := strings.ToLower(strings.TrimSpace(token))
	if s == "" {
		return coordinate{}, false
	}
	s = strings.ReplaceAll(s, ",", "")

	multiplier := int64(1)
	if m := megabaseRe.FindStringSubmatch(s); m != nil {
		s, multiplier = m[1], 1000000
	} else if m := kilobaseRe.FindStringSubmatch(s); m != nil {
		s, multiplier = m[1], 1000
	} else if strings.HasSuffix(s, "m") {
		s, multiplier = s[:len(s)-1], 1000000
	} else if strings.HasSuffix(s, "k") {
		s, multiplier = s[:len(s)-1], 1000
	}

	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return coordinate{}, false
	}

	return coordinate{
		bp:       int64(v * float64(multiplier)),
		boundary: multiplier > 1 || strings.ContainsAny(s, ".e"),
	}, true
}

// zeroBased converts the coordinate to the internal 0-based start
// convention.
func (c coordinate) zeroBased() int64 {
	if c.boundary {
		return c.bp
	}
	return c.bp - 1
}
