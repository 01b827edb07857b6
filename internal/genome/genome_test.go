package genome

import (
	"os"
	"path/filepath"
	"testing"
)

func testGenome() *Genome {
	return New("test", []Chromosome{
		{Name: "chr1", Size: 248956422},
		{Name: "chr2", Size: 242193529},
		{Name: "chrX", Size: 156040895},
	})
}

func TestChromosomeLookupNormalization(t *testing.T) {
	g := testGenome()

	for _, name := range []string{"chr1", "1", "CHR1", "Chr1"} {
		c, ok := g.Chromosome(name)
		if !ok {
			t.Fatalf("lookup %q failed", name)
		}
		if c.Name != "chr1" || c.Index != 1 {
			t.Errorf("lookup %q: got %+v", name, c)
		}
	}

	if _, ok := g.Chromosome("chr99"); ok {
		t.Error("chr99 should not resolve")
	}
}

func TestWholeGenomeEntry(t *testing.T) {
	g := testGenome()

	all, ok := g.ChromosomeAt(WholeGenomeIndex)
	if !ok {
		t.Fatal("missing whole-genome entry")
	}
	if all.Name != WholeGenomeName {
		t.Errorf("expected %q, got %q", WholeGenomeName, all.Name)
	}
	// Whole-genome size is kilobase-scaled
	want := g.GenomeLength() / 1000
	if all.Size != want {
		t.Errorf("whole-genome size: expected %d, got %d", want, all.Size)
	}
}

func TestChromosomeForCoordinate(t *testing.T) {
	g := testGenome()

	if c := g.ChromosomeForCoordinate(0); c.Name != "chr1" {
		t.Errorf("bp 0: got %s", c.Name)
	}
	if c := g.ChromosomeForCoordinate(248956422); c.Name != "chr2" {
		t.Errorf("first bp of chr2: got %s", c.Name)
	}
	if c := g.ChromosomeForCoordinate(g.GenomeLength() + 500); c.Name != "chrX" {
		t.Errorf("past genome end: got %s", c.Name)
	}
	if c := g.ChromosomeForCoordinate(-10); c.Name != "chr1" {
		t.Errorf("negative coordinate: got %s", c.Name)
	}
}

func TestOffsetBp(t *testing.T) {
	g := testGenome()
	if got := g.OffsetBp(1); got != 0 {
		t.Errorf("chr1 offset: got %d", got)
	}
	if got := g.OffsetBp(2); got != 248956422 {
		t.Errorf("chr2 offset: got %d", got)
	}
	if got := g.OffsetBp(3); got != 248956422+242193529 {
		t.Errorf("chrX offset: got %d", got)
	}
}

func TestLoadChromSizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.chrom.sizes")
	content := "chr1\t248956422\nchr2\t242193529\n# comment\nchrX\t156040895\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := LoadChromSizes("hg38", path)
	if err != nil {
		t.Fatalf("LoadChromSizes: %v", err)
	}
	if g.Count() != 4 { // 3 chromosomes + whole-genome
		t.Errorf("expected 4 entries, got %d", g.Count())
	}
	if g.ID() != "hg38" {
		t.Errorf("unexpected genome ID %q", g.ID())
	}

	c, ok := g.Chromosome("x")
	if !ok || c.Size != 156040895 {
		t.Errorf("chrX lookup: %+v ok=%v", c, ok)
	}
}

func TestGeneIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genes.tsv")
	content := "# name\tchr\tstart\tend\nMYC\tchr8\t127735434\t127742951\nTP53\tchr17\t7668402\t7687550\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	idx, err := LoadGenes(path)
	if err != nil {
		t.Fatalf("LoadGenes: %v", err)
	}
	if idx.Count() != 2 {
		t.Errorf("expected 2 genes, got %d", idx.Count())
	}

	g, ok := idx.Lookup("myc")
	if !ok {
		t.Fatal("myc lookup failed")
	}
	if g.Chr != "chr8" || g.Start != 127735433 || g.End != 127742951 {
		t.Errorf("myc: %+v", g)
	}

	if _, ok := idx.Lookup("NOPE"); ok {
		t.Error("unknown gene should not resolve")
	}
}
