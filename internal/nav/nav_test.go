package nav

import (
	"context"

	"github.com/aidenlab/juicebox-mcp-sub000/internal/genome"
)

// Test fixture: two chromosomes, an 800x800 viewport, and the usual
// base-pair tiers. The whole-genome pseudo-chromosome spans 350,000 kb,
// giving a 1000-bin genome-wide matrix at a 350 kb tier.
const (
	testChr1Size = 200_000_000
	testChr2Size = 150_000_000
	testViewDim  = 800
)

var testBinSizes = []int64{2_500_000, 1_000_000, 500_000, 250_000, 100_000, 50_000, 25_000, 10_000, 5_000}

func testGenome() *genome.Genome {
	return genome.New("test", []genome.Chromosome{
		{Name: "chr1", Size: testChr1Size},
		{Name: "chr2", Size: testChr2Size},
	})
}

// fakeDataset derives matrix extents from chromosome sizes, the way a real
// dataset derives them from matrix metadata.
type fakeDataset struct {
	genome *genome.Genome
	bp     *ResolutionTable
	wg     *ResolutionTable
}

func newFakeDataset(g *genome.Genome) *fakeDataset {
	bp, err := NewResolutionTable(testBinSizes)
	if err != nil {
		panic(err)
	}
	all, _ := g.ChromosomeAt(genome.WholeGenomeIndex)
	wg, err := NewResolutionTable([]int64{all.Size / 1000})
	if err != nil {
		panic(err)
	}
	return &fakeDataset{genome: g, bp: bp, wg: wg}
}

func (d *fakeDataset) ResolutionsFor(chr1, chr2 int) *ResolutionTable {
	if chr1 == WholeGenomeIndex {
		return d.wg
	}
	return d.bp
}

func (d *fakeDataset) MatrixBins(_ context.Context, chr1, chr2, zoom int) (float64, float64, error) {
	bin := d.ResolutionsFor(chr1, chr2).BinSize(zoom)
	c1, _ := d.genome.ChromosomeAt(chr1)
	c2, _ := d.genome.ChromosomeAt(chr2)
	return float64(c1.Size) / float64(bin), float64(c2.Size) / float64(bin), nil
}

func newTestEngine() (*ZoomEngine, *fakeDataset) {
	g := testGenome()
	ds := newFakeDataset(g)
	e := NewZoomEngine(g, NewScreenViewport(testViewDim, testViewDim), nil)
	if _, err := e.SetDataset(context.Background(), ds); err != nil {
		panic(err)
	}
	return e, ds
}
