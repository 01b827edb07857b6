package locus

import (
	"regexp"
	"strings"
)

// request is the intermediate form shared by the natural-language
// normalizer and the canonical parser: a chromosome token plus either a
// start/end pair, a single position, or nothing (whole chromosome).
type request struct {
	chr      string
	start    string
	end      string
	position string
}

// rule rewrites one recognized phrasing into a request. Rules are evaluated
// in order and the first match wins, so more specific phrasings must come
// before the generic ones.
type rule struct {
	re      *regexp.Regexp
	rewrite func(m []string) request
}

var naturalRules = []rule{
	// "chromosome 1 from 10 megabases to 20 megabases"
	{
		re: regexp.MustCompile(`(?i)^chr(?:omosome)?\s+(\S+)\s+from\s+(.+?)\s+to\s+(.+)$`),
		rewrite: func(m []string) request {
			return request{chr: m[1], start: m[2], end: m[3]}
		},
	},
	// "chr 1 starting at 10M ending at 20M"
	{
		re: regexp.MustCompile(`(?i)^chr(?:omosome)?\s+(\S+)\s+starting\s+at\s+(.+?)\s+(?:and\s+)?ending\s+at\s+(.+)$`),
		rewrite: func(m []string) request {
			return request{chr: m[1], start: m[2], end: m[3]}
		},
	},
	// "position 5,000,000 on chromosome 2"
	{
		re: regexp.MustCompile(`(?i)^position\s+(.+?)\s+on\s+chr(?:omosome)?\s+(\S+)$`),
		rewrite: func(m []string) request {
			return request{chr: m[2], position: m[1]}
		},
	},
	// "chr 1 10M-20M" / "chr 1 10M to 20M"
	{
		re: regexp.MustCompile(`(?i)^chr(?:omosome)?\s+(\S+)\s+(.+?)(?:\s*-\s*|\s+to\s+)(.+)$`),
		rewrite: func(m []string) request {
			return request{chr: m[1], start: m[2], end: m[3]}
		},
	},
	// "chromosome 7"
	{
		re: regexp.MustCompile(`(?i)^chr(?:omosome)?\s+(\S+)$`),
		rewrite: func(m []string) request {
			return request{chr: m[1]}
		},
	},
}

// normalizeNatural matches input against the natural-language rules.
// Non-matching input is left for the canonical parser.
func normalizeNatural(input string) (request, bool) {
	s := strings.TrimSpace(input)
	for _, r := range naturalRules {
		if m := r.re.FindStringSubmatch(s); m != nil {
			return r.rewrite(m), true
		}
	}
	return request{}, false
}

// parseCanonical splits the canonical "chr:start-end", "chr:position", or
// bare "chr" form into a request.
func parseCanonical(input string) request {
	s := strings.TrimSpace(input)
	colon := strings.Index(s, ":")
	if colon < 0 {
		return request{chr: s}
	}

	chr := strings.TrimSpace(s[:colon])
	rest := strings.TrimSpace(s[colon+1:])
	if rest == "" {
		return request{chr: chr}
	}

	if dash := strings.Index(rest, "-"); dash >= 0 {
		return request{
			chr:   chr,
			start: strings.TrimSpace(rest[:dash]),
			end:   strings.TrimSpace(rest[dash+1:]),
		}
	}
	return request{chr: chr, position: rest}
}
