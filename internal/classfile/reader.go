package classfile

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/edsrzf/mmap-go"
)

// Reader is a monotonically-advancing, big-endian cursor over an
// in-memory byte slice. The slice backing a top-level Reader opened
// with Open is a read-only memory mapping of the class file; Blob
// and sub-readers created during parsing simply slice into the same
// backing array without copying.
type Reader struct {
	name   string
	data   []byte
	offset int
}

// mappedFile keeps the *os.File and mmap.MMap alive for the duration
// of a parse so the mapping is not garbage collected out from under
// the Reader; Close unmaps and closes it once parsing is done.
type mappedFile struct {
	f   *os.File
	m   mmap.MMap
}

func (mf *mappedFile) Close() error {
	if mf == nil {
		return nil
	}
	errUnmap := mf.m.Unmap()
	errClose := mf.f.Close()
	if errUnmap != nil {
		return errUnmap
	}
	return errClose
}

// Open searches the current directory and a "java/" subdirectory for
// name, memory-maps it read-only, and returns a Reader positioned at
// offset 0 plus a closer that must be called once the caller is done
// decoding (ownership of the bytes does not need to outlive decode,
// since the class-file parser copies everything it keeps into plain
// Go values).
func Open(name string) (*Reader, func() error, error) {
	path := name
	if _, err := os.Stat(path); err != nil {
		alt := filepath.Join("java", name)
		if _, err2 := os.Stat(alt); err2 == nil {
			path = alt
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, wrapError(name, 0, "opening class file", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, wrapError(name, 0, "statting class file", err)
	}

	// mmap.Map refuses to map a zero-length file.
	if info.Size() == 0 {
		f.Close()
		return nil, nil, newError(name, 0, "class file is empty")
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, nil, wrapError(name, 0, "mapping class file", err)
	}

	mf := &mappedFile{f: f, m: m}
	r := &Reader{name: name, data: []byte(m)}
	return r, mf.Close, nil
}

// NewReader wraps an existing byte slice without mapping anything;
// used for sub-blobs and in tests.
func NewReader(name string, data []byte) *Reader {
	return &Reader{name: name, data: data}
}

func (r *Reader) Name() string   { return r.name }
func (r *Reader) Offset() int    { return r.offset }
func (r *Reader) Len() int       { return len(r.data) }
func (r *Reader) HasMore() bool  { return r.offset < len(r.data) }
func (r *Reader) Rewind()        { r.offset = 0 }

func (r *Reader) require(n int) error {
	if r.offset+n > len(r.data) {
		return newError(r.name, r.offset, "unexpected end of class file")
	}
	return nil
}

// Skip advances the cursor by n bytes without interpreting them.
func (r *Reader) Skip(n int) error {
	if err := r.require(n); err != nil {
		return err
	}
	r.offset += n
	return nil
}

// U8 reads one unsigned byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	v := r.data[r.offset]
	r.offset++
	return v, nil
}

// I8 reads one signed byte.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// U16 reads a big-endian unsigned 16-bit value.
func (r *Reader) U16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := uint16(r.data[r.offset])<<8 | uint16(r.data[r.offset+1])
	r.offset += 2
	return v, nil
}

// I16 reads a big-endian signed 16-bit value.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// U32 reads a big-endian unsigned 32-bit value.
func (r *Reader) U32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.offset])<<24 | uint32(r.data[r.offset+1])<<16 |
		uint32(r.data[r.offset+2])<<8 | uint32(r.data[r.offset+3])
	r.offset += 4
	return v, nil
}

// I32 reads a big-endian signed 32-bit value.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// U64 reads a big-endian unsigned 64-bit value.
func (r *Reader) U64() (uint64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	hi, _ := func() (uint32, error) {
		return uint32(r.data[r.offset])<<24 | uint32(r.data[r.offset+1])<<16 |
			uint32(r.data[r.offset+2])<<8 | uint32(r.data[r.offset+3]), nil
	}()
	lo := uint32(r.data[r.offset+4])<<24 | uint32(r.data[r.offset+5])<<16 |
		uint32(r.data[r.offset+6])<<8 | uint32(r.data[r.offset+7])
	r.offset += 8
	return uint64(hi)<<32 | uint64(lo), nil
}

// I64 reads a big-endian signed 64-bit value.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// F32 reads a big-endian IEEE-754 single-precision value.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// F64 reads a big-endian IEEE-754 double-precision value.
func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// UTF8 reads a u16 length prefix followed by that many bytes,
// decoded as (possibly lossily-repaired) UTF-8.
func (r *Reader) UTF8() (string, error) {
	n, err := r.U16()
	if err != nil {
		return "", err
	}
	if err := r.require(int(n)); err != nil {
		return "", err
	}
	raw := r.data[r.offset : r.offset+int(n)]
	r.offset += int(n)
	return strings.ToValidUTF8(string(raw), "�"), nil
}

// Blob returns an independent Reader over the next n bytes and
// advances this Reader past them.
func (r *Reader) Blob(n int) (*Reader, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	sub := r.data[r.offset : r.offset+n]
	r.offset += n
	return NewReader(r.name, sub), nil
}

func (r *Reader) errf(reason string) error {
	return newError(r.name, r.offset, reason)
}
