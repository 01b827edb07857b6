package hic

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
)

// ContactRecord is one non-zero cell of a contact matrix, in bin units of
// its zoom level.
type ContactRecord struct {
	BinX   int64
	BinY   int64
	Counts float32
}

// blockEntry locates one compressed contact block in the file body.
type blockEntry struct {
	position int64
	size     int32
}

// ZoomData is one resolution tier of a chromosome-pair matrix: bin size,
// block geometry, and the index of its compressed blocks.
type ZoomData struct {
	Unit             string
	ZoomIndex        int
	BinSize          int64
	SumCounts        float64
	BlockBinCount    int64
	BlockColumnCount int64

	file   *File
	intra  bool
	blocks map[int64]blockEntry
}

// Matrix is the set of resolution tiers stored for one chromosome pair.
type Matrix struct {
	Chr1  int
	Chr2  int
	zooms []*ZoomData
}

// ZoomData returns the base-pair tier with the given zoom index.
func (m *Matrix) ZoomData(zoomIndex int) (*ZoomData, bool) {
	for _, z := range m.zooms {
		if z.Unit == "BP" && z.ZoomIndex == zoomIndex {
			return z, true
		}
	}
	return nil, false
}

func (hf *File) readMatrix(entry indexEntry) (*Matrix, error) {
	r := &fieldReader{r: bufio.NewReader(io.NewSectionReader(hf.f, entry.position, int64(entry.size)))}

	m := &Matrix{
		Chr1: int(r.i32()),
		Chr2: int(r.i32()),
	}
	nRes := r.i32()
	for i := int32(0); i < nRes && r.err == nil; i++ {
		z := &ZoomData{
			file:  hf,
			intra: m.Chr1 == m.Chr2,
		}
		z.Unit = r.str()
		z.ZoomIndex = int(r.i32())
		z.SumCounts = float64(r.f32())
		r.i32() // occupied cell count, unused
		r.f32() // stddev, unused
		r.f32() // 95th percentile, unused
		z.BinSize = int64(r.i32())
		z.BlockBinCount = int64(r.i32())
		z.BlockColumnCount = int64(r.i32())

		nBlocks := r.i32()
		z.blocks = make(map[int64]blockEntry, nBlocks)
		for b := int32(0); b < nBlocks && r.err == nil; b++ {
			num := int64(r.i32())
			pos := r.i64()
			size := r.i32()
			z.blocks[num] = blockEntry{position: pos, size: size}
		}
		m.zooms = append(m.zooms, z)
	}
	if r.err != nil {
		return nil, r.err
	}
	return m, nil
}

// Records returns the non-zero cells intersecting the half-open bin
// rectangle [x0,x1) x [y0,y1). Intra-chromosomal matrices store only the
// upper triangle (binX <= binY); mirrored cells are emitted so callers can
// paint the rectangle directly.
func (z *ZoomData) Records(x0, x1, y0, y1 int64) ([]ContactRecord, error) {
	var out []ContactRecord
	for _, num := range z.blockNumbers(x0, x1, y0, y1) {
		entry, ok := z.blocks[num]
		if !ok {
			continue
		}
		records, err := z.file.readBlock(entry)
		if err != nil {
			return nil, fmt.Errorf("hic: block %d: %w", num, err)
		}
		for _, rec := range records {
			if rec.BinX >= x0 && rec.BinX < x1 && rec.BinY >= y0 && rec.BinY < y1 {
				out = append(out, rec)
			}
			if z.intra && rec.BinX != rec.BinY &&
				rec.BinY >= x0 && rec.BinY < x1 && rec.BinX >= y0 && rec.BinX < y1 {
				out = append(out, ContactRecord{BinX: rec.BinY, BinY: rec.BinX, Counts: rec.Counts})
			}
		}
	}
	return out, nil
}

// blockNumbers lists the blocks covering the rectangle. For intra
// matrices the transposed rectangle is included, since cells below the
// diagonal live in their mirrored block.
func (z *ZoomData) blockNumbers(x0, x1, y0, y1 int64) []int64 {
	seen := make(map[int64]bool)
	var nums []int64
	add := func(colMin, colMax, rowMin, rowMax int64) {
		for row := rowMin; row <= rowMax; row++ {
			for col := colMin; col <= colMax; col++ {
				num := row*z.BlockColumnCount + col
				if !seen[num] {
					seen[num] = true
					nums = append(nums, num)
				}
			}
		}
	}

	colMin, colMax := x0/z.BlockBinCount, (x1-1)/z.BlockBinCount
	rowMin, rowMax := y0/z.BlockBinCount, (y1-1)/z.BlockBinCount
	add(colMin, colMax, rowMin, rowMax)
	if z.intra {
		add(rowMin, rowMax, colMin, colMax)
	}
	return nums
}

// readBlock decompresses and decodes one contact block.
func (hf *File) readBlock(entry blockEntry) ([]ContactRecord, error) {
	buf := make([]byte, entry.size)
	if _, err := hf.f.ReadAt(buf, entry.position); err != nil {
		return nil, err
	}
	zr, err := zlib.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	r := &fieldReader{r: bufio.NewReader(zr)}
	nRecords := r.i32()
	binXOffset := int64(r.i32())
	binYOffset := int64(r.i32())
	useShort := r.u8() == 1
	blockType := r.u8()

	records := make([]ContactRecord, 0, nRecords)
	readCount := func() float32 {
		if useShort {
			return float32(r.i16())
		}
		return r.f32()
	}

	switch blockType {
	case 1: // list of rows
		rowCount := r.i16()
		for i := int16(0); i < rowCount && r.err == nil; i++ {
			rowNumber := int64(r.i16())
			recordCount := r.i16()
			for j := int16(0); j < recordCount && r.err == nil; j++ {
				binX := binXOffset + int64(r.i16())
				records = append(records, ContactRecord{
					BinX:   binX,
					BinY:   binYOffset + rowNumber,
					Counts: readCount(),
				})
			}
		}
	case 2: // dense
		nValues := r.i32()
		width := int64(r.i16())
		for i := int32(0); i < nValues && r.err == nil; i++ {
			var counts float32
			if useShort {
				v := r.i16()
				if v == math.MinInt16 {
					continue
				}
				counts = float32(v)
			} else {
				counts = r.f32()
				if math.IsNaN(float64(counts)) {
					continue
				}
			}
			records = append(records, ContactRecord{
				BinX:   binXOffset + int64(i)%width,
				BinY:   binYOffset + int64(i)/width,
				Counts: counts,
			})
		}
	default:
		return nil, fmt.Errorf("unknown block type %d", blockType)
	}

	if r.err != nil && r.err != io.EOF {
		return nil, r.err
	}
	return records, nil
}
