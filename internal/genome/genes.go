package genome

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Gene is a named annotation interval used as the fallback when user input
// does not resolve to a chromosome.
type Gene struct {
	Name  string
	Chr   string
	Start int64 // 0-based inclusive
	End   int64 // exclusive
}

// GeneIndex is a case-insensitive gene name lookup table.
type GeneIndex struct {
	byName map[string]Gene
}

// NewGeneIndex builds an index over the given genes.
func NewGeneIndex(genes []Gene) *GeneIndex {
	idx := &GeneIndex{byName: make(map[string]Gene, len(genes))}
	for _, g := range genes {
		idx.byName[strings.ToLower(g.Name)] = g
	}
	return idx
}

// Lookup resolves a gene by name, ignoring case.
func (idx *GeneIndex) Lookup(name string) (Gene, bool) {
	if idx == nil {
		return Gene{}, false
	}
	g, ok := idx.byName[strings.ToLower(strings.TrimSpace(name))]
	return g, ok
}

// Count returns the number of indexed genes.
func (idx *GeneIndex) Count() int {
	if idx == nil {
		return 0
	}
	return len(idx.byName)
}

// LoadGenes reads a gene annotation TSV with columns
// name<TAB>chr<TAB>start<TAB>end (1-based start, as exported from refGene).
// Lines starting with '#' are skipped.
func LoadGenes(path string) (*GeneIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gene annotations: %w", err)
	}
	defer f.Close()

	var genes []Gene
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			return nil, fmt.Errorf("gene annotations line %d: expected 4 columns, found %d", lineNo, len(fields))
		}
		start, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("gene annotations line %d: invalid start %q", lineNo, fields[2])
		}
		end, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("gene annotations line %d: invalid end %q", lineNo, fields[3])
		}
		genes = append(genes, Gene{
			Name:  fields[0],
			Chr:   fields[1],
			Start: start - 1,
			End:   end,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read gene annotations: %w", err)
	}

	return NewGeneIndex(genes), nil
}
