// Package hic reads version 8 .hic contact-matrix containers: the header
// with genome and resolution metadata, the footer's master index, and the
// zlib-compressed contact blocks of each chromosome-pair matrix.
package hic

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

// Magic bytes at the start of every .hic file.
const magic = "HIC"

// Version is the container version this reader supports.
const Version = 8

// Chromosome is a chromosome entry from the file header. Index 0 is the
// whole-genome pseudo-chromosome ("ALL").
type Chromosome struct {
	Index int
	Name  string
	Size  int64
}

// indexEntry locates a chromosome-pair matrix in the file body.
type indexEntry struct {
	position int64
	size     int32
}

// File is an open .hic container. Matrix metadata is read lazily and
// cached; File is safe for concurrent use.
type File struct {
	path        string
	f           *os.File
	version     int32
	genomeID    string
	attributes  map[string]string
	chromosomes []Chromosome
	resolutions []int64

	mu       sync.Mutex
	index    map[string]indexEntry
	matrices map[string]*Matrix
}

// Open reads the header and master index of a .hic file.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hic file: %w", err)
	}

	hf := &File{
		path:     path,
		f:        f,
		matrices: make(map[string]*Matrix),
	}
	masterPos, err := hf.readHeader()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read hic header %s: %w", path, err)
	}
	if err := hf.readFooter(masterPos); err != nil {
		f.Close()
		return nil, fmt.Errorf("read hic footer %s: %w", path, err)
	}
	return hf, nil
}

// Close releases the underlying file handle.
func (hf *File) Close() error {
	return hf.f.Close()
}

// GenomeID returns the genome identifier recorded in the header.
func (hf *File) GenomeID() string {
	return hf.genomeID
}

// Attributes returns the header attribute map.
func (hf *File) Attributes() map[string]string {
	return hf.attributes
}

// Chromosomes returns the header chromosome table, "ALL" first.
func (hf *File) Chromosomes() []Chromosome {
	return hf.chromosomes
}

// Resolutions returns the base-pair bin sizes, coarsest first.
func (hf *File) Resolutions() []int64 {
	return hf.resolutions
}

func (hf *File) readHeader() (int64, error) {
	r := &fieldReader{r: bufio.NewReader(io.NewSectionReader(hf.f, 0, 1<<62))}

	if m := r.str(); m != magic {
		return 0, fmt.Errorf("bad magic %q", m)
	}
	hf.version = r.i32()
	if r.err == nil && hf.version != Version {
		return 0, fmt.Errorf("unsupported version %d", hf.version)
	}
	masterPos := r.i64()
	hf.genomeID = r.str()

	nAttr := r.i32()
	hf.attributes = make(map[string]string, nAttr)
	for i := int32(0); i < nAttr && r.err == nil; i++ {
		k := r.str()
		hf.attributes[k] = r.str()
	}

	nChrom := r.i32()
	hf.chromosomes = make([]Chromosome, 0, nChrom)
	for i := int32(0); i < nChrom && r.err == nil; i++ {
		name := r.str()
		size := r.i32()
		hf.chromosomes = append(hf.chromosomes, Chromosome{
			Index: int(i),
			Name:  name,
			Size:  int64(size),
		})
	}

	nRes := r.i32()
	hf.resolutions = make([]int64, 0, nRes)
	for i := int32(0); i < nRes && r.err == nil; i++ {
		hf.resolutions = append(hf.resolutions, int64(r.i32()))
	}

	if r.err != nil {
		return 0, r.err
	}
	return masterPos, nil
}

func (hf *File) readFooter(masterPos int64) error {
	r := &fieldReader{r: bufio.NewReader(io.NewSectionReader(hf.f, masterPos, 1<<62))}

	r.i32() // nBytesV5, unused
	nEntries := r.i32()
	hf.index = make(map[string]indexEntry, nEntries)
	for i := int32(0); i < nEntries && r.err == nil; i++ {
		key := r.str()
		pos := r.i64()
		size := r.i32()
		hf.index[key] = indexEntry{position: pos, size: size}
	}
	return r.err
}

func pairKey(chr1, chr2 int) string {
	return fmt.Sprintf("%d_%d", chr1, chr2)
}

// Matrix returns the matrix for a chromosome pair, reading its metadata on
// first use. Pairs are stored lower-triangle; callers pass chr1 <= chr2.
func (hf *File) Matrix(chr1, chr2 int) (*Matrix, error) {
	key := pairKey(chr1, chr2)

	hf.mu.Lock()
	defer hf.mu.Unlock()
	if m, ok := hf.matrices[key]; ok {
		return m, nil
	}

	entry, ok := hf.index[key]
	if !ok {
		return nil, fmt.Errorf("hic: no matrix for pair %s", key)
	}
	m, err := hf.readMatrix(entry)
	if err != nil {
		return nil, fmt.Errorf("hic: read matrix %s: %w", key, err)
	}
	hf.matrices[key] = m
	return m, nil
}

// fieldReader reads little-endian header fields with a sticky error, so
// parse sequences stay linear.
type fieldReader struct {
	r   *bufio.Reader
	err error
}

func (fr *fieldReader) i32() int32 {
	var v int32
	fr.read(&v)
	return v
}

func (fr *fieldReader) i64() int64 {
	var v int64
	fr.read(&v)
	return v
}

func (fr *fieldReader) i16() int16 {
	var v int16
	fr.read(&v)
	return v
}

func (fr *fieldReader) f32() float32 {
	var v float32
	fr.read(&v)
	return v
}

func (fr *fieldReader) u8() byte {
	var v byte
	fr.read(&v)
	return v
}

// str reads a null-terminated string.
func (fr *fieldReader) str() string {
	if fr.err != nil {
		return ""
	}
	s, err := fr.r.ReadString(0)
	if err != nil {
		fr.err = err
		return ""
	}
	return s[:len(s)-1]
}

func (fr *fieldReader) read(v any) {
	if fr.err != nil {
		return
	}
	fr.err = binary.Read(fr.r, binary.LittleEndian, v)
}
