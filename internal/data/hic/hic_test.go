package hic

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// builder assembles little-endian .hic bytes for test fixtures.
type builder struct {
	buf bytes.Buffer
}

func (b *builder) str(s string) {
	b.buf.WriteString(s)
	b.buf.WriteByte(0)
}

func (b *builder) u8(v byte)     { b.buf.WriteByte(v) }
func (b *builder) i16(v int16)   { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *builder) i32(v int32)   { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *builder) i64(v int64)   { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *builder) f32(v float32) { binary.Write(&b.buf, binary.LittleEndian, v) }

func zlibCompress(t *testing.T, payload []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	_, err := zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return out.Bytes()
}

// encodeListBlock encodes records (sorted by BinY then BinX) as a
// short-count row-list block.
func encodeListBlock(t *testing.T, records []ContactRecord) []byte {
	t.Helper()
	minX, minY := records[0].BinX, records[0].BinY
	for _, r := range records {
		if r.BinX < minX {
			minX = r.BinX
		}
		if r.BinY < minY {
			minY = r.BinY
		}
	}

	var p builder
	p.i32(int32(len(records)))
	p.i32(int32(minX))
	p.i32(int32(minY))
	p.u8(1) // short counts
	p.u8(1) // row list

	type row struct {
		y    int64
		recs []ContactRecord
	}
	var rows []row
	for _, r := range records {
		if len(rows) == 0 || rows[len(rows)-1].y != r.BinY {
			rows = append(rows, row{y: r.BinY})
		}
		rows[len(rows)-1].recs = append(rows[len(rows)-1].recs, r)
	}

	p.i16(int16(len(rows)))
	for _, rw := range rows {
		p.i16(int16(rw.y - minY))
		p.i16(int16(len(rw.recs)))
		for _, r := range rw.recs {
			p.i16(int16(r.BinX - minX))
			p.i16(int16(r.Counts))
		}
	}
	return zlibCompress(t, p.buf.Bytes())
}

// encodeDenseBlock encodes a float dense block of the given width; NaN
// marks empty cells.
func encodeDenseBlock(t *testing.T, xOff, yOff int64, width int16, values []float32) []byte {
	t.Helper()
	n := 0
	for _, v := range values {
		if !math.IsNaN(float64(v)) {
			n++
		}
	}

	var p builder
	p.i32(int32(n))
	p.i32(int32(xOff))
	p.i32(int32(yOff))
	p.u8(0) // float counts
	p.u8(2) // dense
	p.i32(int32(len(values)))
	p.i16(width)
	for _, v := range values {
		p.f32(v)
	}
	return zlibCompress(t, p.buf.Bytes())
}

type blockSpec struct {
	num     int64
	payload []byte
}

type zoomSpec struct {
	index            int32
	binSize          int32
	blockBinCount    int32
	blockColumnCount int32
	sumCounts        float32
	blocks           []blockSpec
}

// writeTestHic builds a small version-8 file: chr1 (2 Mb), chr2 (1 Mb),
// three base-pair tiers, a kilobase-scaled genome-wide matrix, and intra
// and inter matrices with list and dense blocks.
func writeTestHic(t *testing.T) string {
	t.Helper()

	var b builder
	b.str(magic)
	b.i32(Version)
	masterPosAt := b.buf.Len()
	b.i64(0) // master index position, patched below
	b.str("hg-test")
	b.i32(1)
	b.str("software")
	b.str("test-writer")
	b.i32(3)
	b.str("ALL")
	b.i32(3000)
	b.str("chr1")
	b.i32(2_000_000)
	b.str("chr2")
	b.i32(1_000_000)
	b.i32(3)
	b.i32(1_000_000)
	b.i32(500_000)
	b.i32(100_000)

	type footerEntry struct {
		key  string
		pos  int64
		size int32
	}
	var entries []footerEntry

	writeMatrix := func(key string, chr1, chr2 int32, zooms []zoomSpec) {
		// Blocks first, so the zoom headers can reference their offsets.
		type placed struct {
			num  int64
			pos  int64
			size int32
		}
		placedBlocks := make([][]placed, len(zooms))
		for zi, z := range zooms {
			for _, blk := range z.blocks {
				pos := int64(b.buf.Len())
				b.buf.Write(blk.payload)
				placedBlocks[zi] = append(placedBlocks[zi], placed{
					num:  blk.num,
					pos:  pos,
					size: int32(len(blk.payload)),
				})
			}
		}

		start := int64(b.buf.Len())
		b.i32(chr1)
		b.i32(chr2)
		b.i32(int32(len(zooms)))
		for zi, z := range zooms {
			b.str("BP")
			b.i32(z.index)
			b.f32(z.sumCounts)
			b.i32(0) // occupied cell count
			b.f32(0) // stddev
			b.f32(0) // 95th percentile
			b.i32(z.binSize)
			b.i32(z.blockBinCount)
			b.i32(z.blockColumnCount)
			b.i32(int32(len(placedBlocks[zi])))
			for _, p := range placedBlocks[zi] {
				b.i32(int32(p.num))
				b.i64(p.pos)
				b.i32(p.size)
			}
		}
		entries = append(entries, footerEntry{key: key, pos: start, size: int32(int64(b.buf.Len()) - start)})
	}

	// Genome-wide matrix: 3000 kb pseudo-chromosome at a 3 kb tier.
	writeMatrix("0_0", 0, 0, []zoomSpec{{
		index: 0, binSize: 3, blockBinCount: 1000, blockColumnCount: 1, sumCounts: 12,
		blocks: []blockSpec{{num: 0, payload: encodeListBlock(t, []ContactRecord{
			{BinX: 0, BinY: 0, Counts: 8},
			{BinX: 100, BinY: 700, Counts: 4},
		})}},
	}})

	// chr1 intra: coarse tier in one block, fine tier across two blocks.
	writeMatrix("1_1", 1, 1, []zoomSpec{
		{
			index: 0, binSize: 1_000_000, blockBinCount: 2, blockColumnCount: 1, sumCounts: 36,
			blocks: []blockSpec{{num: 0, payload: encodeListBlock(t, []ContactRecord{
				{BinX: 0, BinY: 0, Counts: 20},
				{BinX: 0, BinY: 1, Counts: 7},
				{BinX: 1, BinY: 1, Counts: 9},
			})}},
		},
		{
			index: 2, binSize: 100_000, blockBinCount: 10, blockColumnCount: 2, sumCounts: 17,
			blocks: []blockSpec{
				{num: 0, payload: encodeListBlock(t, []ContactRecord{
					{BinX: 0, BinY: 0, Counts: 10},
					{BinX: 1, BinY: 3, Counts: 5},
				})},
				{num: 3, payload: encodeListBlock(t, []ContactRecord{
					{BinX: 12, BinY: 15, Counts: 2},
				})},
			},
		},
	})

	// chr1 x chr2 inter tier.
	writeMatrix("1_2", 1, 2, []zoomSpec{{
		index: 2, binSize: 100_000, blockBinCount: 10, blockColumnCount: 2, sumCounts: 3,
		blocks: []blockSpec{{num: 0, payload: encodeListBlock(t, []ContactRecord{
			{BinX: 2, BinY: 4, Counts: 3},
		})}},
	}})

	// chr2 intra with a float dense block.
	writeMatrix("2_2", 2, 2, []zoomSpec{{
		index: 2, binSize: 100_000, blockBinCount: 10, blockColumnCount: 1, sumCounts: 4,
		blocks: []blockSpec{{num: 0, payload: encodeDenseBlock(t, 2, 3, 2, []float32{
			1.5, float32(math.NaN()),
			2.5, float32(math.NaN()),
		})}},
	}})

	masterPos := int64(b.buf.Len())
	b.i32(0) // footer byte count, unused by the reader
	b.i32(int32(len(entries)))
	for _, e := range entries {
		b.str(e.key)
		b.i64(e.pos)
		b.i32(e.size)
	}
	binary.LittleEndian.PutUint64(b.buf.Bytes()[masterPosAt:], uint64(masterPos))

	path := filepath.Join(t.TempDir(), "test.hic")
	require.NoError(t, os.WriteFile(path, b.buf.Bytes(), 0o644))
	return path
}

func openTestFile(t *testing.T) *File {
	t.Helper()
	f, err := Open(writeTestHic(t))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestOpenHeader(t *testing.T) {
	f := openTestFile(t)

	assert.Equal(t, "hg-test", f.GenomeID())
	assert.Equal(t, "test-writer", f.Attributes()["software"])
	assert.Equal(t, []int64{1_000_000, 500_000, 100_000}, f.Resolutions())

	chroms := f.Chromosomes()
	require.Len(t, chroms, 3)
	assert.Equal(t, "ALL", chroms[0].Name)
	assert.Equal(t, "chr1", chroms[1].Name)
	assert.Equal(t, int64(2_000_000), chroms[1].Size)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hic")
	require.NoError(t, os.WriteFile(path, []byte("NOTHIC\x00garbage"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestMatrixMetadata(t *testing.T) {
	f := openTestFile(t)

	m, err := f.Matrix(1, 1)
	require.NoError(t, err)
	z, ok := m.ZoomData(2)
	require.True(t, ok)
	assert.Equal(t, int64(100_000), z.BinSize)
	assert.Equal(t, int64(10), z.BlockBinCount)

	_, ok = m.ZoomData(1)
	assert.False(t, ok, "tier without stored blocks is absent")

	_, err = f.Matrix(0, 2)
	assert.Error(t, err, "pair missing from the master index")
}

func sortRecords(recs []ContactRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].BinY != recs[j].BinY {
			return recs[i].BinY < recs[j].BinY
		}
		return recs[i].BinX < recs[j].BinX
	})
}

func TestRecordsIntraMirrors(t *testing.T) {
	ds := openTestDataset(t)

	recs, err := ds.Records(context.Background(), 1, 1, 2, 0, 20, 0, 20)
	require.NoError(t, err)
	sortRecords(recs)
	assert.Equal(t, []ContactRecord{
		{BinX: 0, BinY: 0, Counts: 10},
		{BinX: 3, BinY: 1, Counts: 5},
		{BinX: 1, BinY: 3, Counts: 5},
		{BinX: 15, BinY: 12, Counts: 2},
		{BinX: 12, BinY: 15, Counts: 2},
	}, recs)
}

func TestRecordsWindow(t *testing.T) {
	ds := openTestDataset(t)

	recs, err := ds.Records(context.Background(), 1, 1, 2, 0, 5, 0, 5)
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	recs, err = ds.Records(context.Background(), 1, 1, 2, 10, 20, 10, 20)
	require.NoError(t, err)
	sortRecords(recs)
	assert.Equal(t, []ContactRecord{
		{BinX: 15, BinY: 12, Counts: 2},
		{BinX: 12, BinY: 15, Counts: 2},
	}, recs)
}

func TestRecordsInter(t *testing.T) {
	ds := openTestDataset(t)

	recs, err := ds.Records(context.Background(), 1, 2, 2, 0, 20, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []ContactRecord{{BinX: 2, BinY: 4, Counts: 3}}, recs)
}

func TestRecordsDenseBlock(t *testing.T) {
	ds := openTestDataset(t)

	recs, err := ds.Records(context.Background(), 2, 2, 2, 0, 10, 0, 10)
	require.NoError(t, err)
	sortRecords(recs)
	assert.Equal(t, []ContactRecord{
		{BinX: 3, BinY: 2, Counts: 1.5},
		{BinX: 4, BinY: 2, Counts: 2.5},
		{BinX: 2, BinY: 3, Counts: 1.5},
		{BinX: 2, BinY: 4, Counts: 2.5},
	}, recs)
}
