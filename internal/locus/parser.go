package locus

import (
	"fmt"

	"github.com/aidenlab/juicebox-mcp-sub000/internal/genome"
)

// Parser resolves locus descriptions against a genome. Parse reports
// ok=false when the chromosome does not resolve; callers fall back to
// gene-name lookup before surfacing an error to the user.
type Parser struct {
	genome *genome.Genome
}

// NewParser creates a parser for the given genome.
func NewParser(g *genome.Genome) *Parser {
	return &Parser{genome: g}
}

// Parse converts a textual locus description into a canonical locus.
// Natural-language phrasings are normalized first; anything unrecognized is
// treated as the canonical "chr:start-end" form.
func (p *Parser) Parse(input string) (Locus, bool) {
	req, ok := normalizeNatural(input)
	if !ok {
		req = parseCanonical(input)
	}
	return p.resolve(req)
}

// ParseFlexible accepts either a locus string or a structured Spec. A Spec
// without a chromosome is a programmer error and returns a non-nil error;
// ordinary resolution failure is reported through ok.
func (p *Parser) ParseFlexible(input any) (Locus, bool, error) {
	switch v := input.(type) {
	case string:
		l, ok := p.Parse(v)
		return l, ok, nil
	case Spec:
		return p.parseSpec(v)
	case *Spec:
		if v == nil {
			return Locus{}, false, fmt.Errorf("locus: nil spec")
		}
		return p.parseSpec(*v)
	default:
		return Locus{}, false, fmt.Errorf("locus: unsupported input type %T", input)
	}
}

func (p *Parser) parseSpec(spec Spec) (Locus, bool, error) {
	if spec.Chr == "" {
		return Locus{}, false, fmt.Errorf("locus: spec missing chr field")
	}
	req := request{chr: spec.Chr}
	if spec.Start != nil && spec.End != nil {
		req.start = fmt.Sprintf("%d", *spec.Start)
		req.end = fmt.Sprintf("%d", *spec.End)
	} else if spec.Start != nil {
		req.position = fmt.Sprintf("%d", *spec.Start)
	}
	l, ok := p.resolve(req)
	return l, ok, nil
}

// resolve validates the chromosome and converts coordinate tokens.
// Coordinates are 1-based on input and stored 0-based. Tokens that fail
// numeric parsing defer to whole-chromosome semantics rather than failing
// the request.
func (p *Parser) resolve(req request) (Locus, bool) {
	chr, ok := p.genome.Chromosome(req.chr)
	if !ok {
		return Locus{}, false
	}

	whole := Locus{Chr: chr.Name, Start: 0, End: chr.Size, WholeChromosome: true}

	if req.position != "" {
		pos, ok := parseCoordinate(req.position)
		if !ok {
			return whole, true
		}
		center := pos.zeroBased()
		start := center - DefaultWindowBp
		end := center + DefaultWindowBp
		return p.clampRange(chr.Name, chr.Size, start, end, whole), true
	}

	if req.start == "" && req.end == "" {
		return whole, true
	}

	start, okStart := parseCoordinate(req.start)
	end, okEnd := parseCoordinate(req.end)
	if !okStart || !okEnd {
		return whole, true
	}

	return p.clampRange(chr.Name, chr.Size, start.zeroBased(), end.bp, whole), true
}

func (p *Parser) clampRange(name string, size, start, end int64, whole Locus) Locus {
	if start < 0 {
		start = 0
	}
	if end > size {
		end = size
	}
	if start >= end {
		return whole
	}
	return Locus{Chr: name, Start: start, End: end}
}
