// Package genome provides chromosome metadata for locus resolution and
// whole-genome coordinate mapping.
package genome

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WholeGenomeIndex is the chromosome index of the whole-genome
// pseudo-chromosome.
const WholeGenomeIndex = 0

// WholeGenomeName is the name of the whole-genome pseudo-chromosome.
const WholeGenomeName = "all"

// Chromosome describes a single reference sequence. Index 0 is the
// whole-genome pseudo-chromosome, whose Size is the genome length in
// kilobases (whole-genome bins are kilobase-scaled).
type Chromosome struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
}

// Genome is an ordered chromosome table with name lookup.
type Genome struct {
	id          string
	chromosomes []Chromosome
	byName      map[string]Chromosome
	offsets     []int64 // cumulative bp start per chromosome (index 1..n)
	length      int64   // total genome length in bp
}

// New builds a Genome from the given reference chromosomes (without the
// whole-genome entry; it is inserted at index 0).
func New(id string, chromosomes []Chromosome) *Genome {
	g := &Genome{
		id:     id,
		byName: make(map[string]Chromosome),
	}

	var length int64
	for _, c := range chromosomes {
		length += c.Size
	}
	g.length = length

	all := Chromosome{Index: WholeGenomeIndex, Name: WholeGenomeName, Size: length / 1000}
	g.chromosomes = make([]Chromosome, 0, len(chromosomes)+1)
	g.chromosomes = append(g.chromosomes, all)
	g.offsets = make([]int64, len(chromosomes)+1)

	var offset int64
	for i, c := range chromosomes {
		c.Index = i + 1
		g.chromosomes = append(g.chromosomes, c)
		g.offsets[c.Index] = offset
		offset += c.Size
	}

	for _, c := range g.chromosomes {
		g.byName[normalizeName(c.Name)] = c
	}

	return g
}

// ID returns the genome identifier (e.g. "hg38").
func (g *Genome) ID() string {
	return g.id
}

// Chromosomes returns the full chromosome table, whole-genome entry first.
func (g *Genome) Chromosomes() []Chromosome {
	return g.chromosomes
}

// Count returns the number of entries including the whole-genome entry.
func (g *Genome) Count() int {
	return len(g.chromosomes)
}

// GenomeLength returns the total genome length in base pairs.
func (g *Genome) GenomeLength() int64 {
	return g.length
}

// Chromosome resolves a chromosome by name. Matching ignores case and an
// optional "chr" prefix, so "1", "chr1" and "CHR1" resolve identically.
func (g *Genome) Chromosome(name string) (Chromosome, bool) {
	c, ok := g.byName[normalizeName(name)]
	return c, ok
}

// ChromosomeAt returns the chromosome with the given index.
func (g *Genome) ChromosomeAt(index int) (Chromosome, bool) {
	if index < 0 || index >= len(g.chromosomes) {
		return Chromosome{}, false
	}
	return g.chromosomes[index], true
}

// OffsetBp returns the genome-wide base-pair offset at which the chromosome
// starts. The whole-genome entry starts at 0.
func (g *Genome) OffsetBp(index int) int64 {
	if index <= 0 || index >= len(g.offsets) {
		return 0
	}
	return g.offsets[index]
}

// ChromosomeForCoordinate maps a genome-wide base-pair coordinate to the
// chromosome containing it. Coordinates beyond the genome end map to the
// last chromosome.
func (g *Genome) ChromosomeForCoordinate(bp int64) Chromosome {
	if len(g.chromosomes) <= 1 {
		return g.chromosomes[WholeGenomeIndex]
	}
	if bp < 0 {
		bp = 0
	}
	for i := 1; i < len(g.chromosomes); i++ {
		start := g.offsets[i]
		if bp >= start && bp < start+g.chromosomes[i].Size {
			return g.chromosomes[i]
		}
	}
	return g.chromosomes[len(g.chromosomes)-1]
}

func normalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "chr")
	return n
}

// LoadChromSizes reads a UCSC chrom.sizes file (name<TAB>size per line) and
// builds a Genome. The genome ID is taken from the caller since the file
// carries none.
func LoadChromSizes(id, path string) (*Genome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chrom.sizes: %w", err)
	}
	defer f.Close()

	var chromosomes []Chromosome
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("chrom.sizes line %d: expected 2 columns, found %d", lineNo, len(fields))
		}
		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chrom.sizes line %d: invalid size %q", lineNo, fields[1])
		}
		chromosomes = append(chromosomes, Chromosome{Name: fields[0], Size: size})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chrom.sizes: %w", err)
	}
	if len(chromosomes) == 0 {
		return nil, fmt.Errorf("chrom.sizes %s: no chromosomes", path)
	}

	return New(id, chromosomes), nil
}
