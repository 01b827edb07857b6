package hic

import (
	"context"
	"fmt"
	"strings"

	"github.com/aidenlab/juicebox-mcp-sub000/internal/genome"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/nav"
)

// Dataset adapts an open .hic container to the navigation and rendering
// layers: a genome built from the header chromosome table, resolution
// tables per chromosome pair, matrix extents, and contact-record queries.
type Dataset struct {
	file *File
	g    *genome.Genome
	bp   *nav.ResolutionTable
	wg   *nav.ResolutionTable
}

// NewDataset builds the adapter. The genome is derived from the file's
// own chromosome table so chromosome indices always line up with the
// matrix keys in the master index.
func NewDataset(file *File) (*Dataset, error) {
	chroms := file.Chromosomes()
	if len(chroms) == 0 {
		return nil, fmt.Errorf("hic: file has no chromosomes")
	}
	if strings.EqualFold(chroms[0].Name, genome.WholeGenomeName) {
		chroms = chroms[1:]
	}
	if len(chroms) == 0 {
		return nil, fmt.Errorf("hic: file has no reference chromosomes")
	}

	refs := make([]genome.Chromosome, 0, len(chroms))
	for _, c := range chroms {
		refs = append(refs, genome.Chromosome{Name: c.Name, Size: c.Size})
	}
	g := genome.New(file.GenomeID(), refs)

	bp, err := nav.NewResolutionTable(file.Resolutions())
	if err != nil {
		return nil, fmt.Errorf("hic: resolution table: %w", err)
	}

	d := &Dataset{file: file, g: g, bp: bp}
	if d.wg, err = d.wholeGenomeTable(); err != nil {
		return nil, err
	}
	return d, nil
}

// wholeGenomeTable derives the genome-wide tier table. The pseudo-
// chromosome and the 0_0 matrix are both kilobase-scaled; files without a
// genome-wide matrix get a single computed tier of about 1000 bins.
func (d *Dataset) wholeGenomeTable() (*nav.ResolutionTable, error) {
	if m, err := d.file.Matrix(genome.WholeGenomeIndex, genome.WholeGenomeIndex); err == nil {
		var bins []int64
		for _, z := range m.zooms {
			if z.Unit == "BP" {
				bins = append(bins, z.BinSize)
			}
		}
		if len(bins) > 0 {
			return nav.NewResolutionTable(bins)
		}
	}

	all, _ := d.g.ChromosomeAt(genome.WholeGenomeIndex)
	bin := all.Size / 1000
	if bin < 1 {
		bin = 1
	}
	return nav.NewResolutionTable([]int64{bin})
}

// Genome returns the genome derived from the file header.
func (d *Dataset) Genome() *genome.Genome {
	return d.g
}

// ResolutionsFor returns the tier table for a chromosome pair.
func (d *Dataset) ResolutionsFor(chr1, _ int) *nav.ResolutionTable {
	if chr1 == genome.WholeGenomeIndex {
		return d.wg
	}
	return d.bp
}

// MatrixBins returns the matrix extent in bins for a pair at a tier,
// derived from the chromosome sizes.
func (d *Dataset) MatrixBins(_ context.Context, chr1, chr2, zoom int) (float64, float64, error) {
	c1, ok1 := d.g.ChromosomeAt(chr1)
	c2, ok2 := d.g.ChromosomeAt(chr2)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("hic: no chromosome pair (%d,%d)", chr1, chr2)
	}
	bin := d.ResolutionsFor(chr1, chr2).BinSize(zoom)
	return float64(c1.Size) / float64(bin), float64(c2.Size) / float64(bin), nil
}

// Records returns the non-zero cells of the pair's matrix at a tier,
// restricted to the half-open bin rectangle [x0,x1) x [y0,y1).
func (d *Dataset) Records(_ context.Context, chr1, chr2, zoom int, x0, x1, y0, y1 int64) ([]ContactRecord, error) {
	z, err := d.zoomData(chr1, chr2, zoom)
	if err != nil {
		return nil, err
	}
	return z.Records(x0, x1, y0, y1)
}

// MeanCounts estimates the mean non-zero cell value of a tier, used to
// seed the render color scale.
func (d *Dataset) MeanCounts(chr1, chr2, zoom int) (float64, error) {
	z, err := d.zoomData(chr1, chr2, zoom)
	if err != nil {
		return 0, err
	}
	c1, _ := d.g.ChromosomeAt(chr1)
	c2, _ := d.g.ChromosomeAt(chr2)
	cells := (float64(c1.Size) / float64(z.BinSize)) * (float64(c2.Size) / float64(z.BinSize))
	if cells <= 0 {
		return 0, nil
	}
	return z.SumCounts / cells, nil
}

func (d *Dataset) zoomData(chr1, chr2, zoom int) (*ZoomData, error) {
	m, err := d.file.Matrix(chr1, chr2)
	if err != nil {
		return nil, err
	}
	z, ok := m.ZoomData(zoom)
	if !ok {
		return nil, fmt.Errorf("hic: pair %d_%d has no zoom %d", chr1, chr2, zoom)
	}
	return z, nil
}
