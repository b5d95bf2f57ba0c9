package semantic

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"
)

const (
	floatSize = 4
	// rowSize is one docID (uint64 LE) followed by Dim float32 components.
	// Storing the docID inline, rather than in a side table, keeps the
	// mmap file the single source of truth the graph is rebuilt from at
	// startup.
	rowHeaderSize = 8

	// File header (v1): magic, dim, row count.
	fileHeaderSize = 24
)

var fileMagic = [8]byte{'W', 'S', 'V', 'E', 'C', '0', '1', ' '}

// VectorFile is an append-only, memory-mapped log of (docID, vector)
// rows. Re-indexing a document appends a new row rather than rewriting
// in place; Index.rebuild (in index.go) resolves each docID to its most
// recent row when reconstructing the in-memory graph. Superseded rows
// stay in the file; nothing reclaims their space.
type VectorFile struct {
	file     *os.File
	mu       sync.RWMutex
	mapped   []byte
	dim      int
	rowCount uint64

	mapHandle  uintptr
	viewHandle uintptr
}

func rowSize(dim int) int64 { return int64(rowHeaderSize + dim*floatSize) }

// OpenVectorFile opens or creates the vector log at path.
func OpenVectorFile(path string, dim int) (*VectorFile, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dim: %d", dim)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open vector file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	vf := &VectorFile{file: f, dim: dim}

	if info.Size() == 0 {
		if err := vf.initNew(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	if err := vf.remap(); err != nil {
		_ = f.Close()
		return nil, err
	}

	onDiskDim, count, err := vf.readHeader()
	if err != nil {
		_ = vf.Close()
		return nil, err
	}
	if int(onDiskDim) != dim {
		_ = vf.Close()
		return nil, fmt.Errorf("vector dimension mismatch: file dim=%d, want %d (delete %s to reset)", onDiskDim, dim, path)
	}
	vf.rowCount = count

	return vf, nil
}

func (vf *VectorFile) initNew() error {
	initialSize := fileHeaderSize + rowSize(vf.dim)*256
	if err := vf.resize(initialSize); err != nil {
		return err
	}
	if err := vf.remap(); err != nil {
		return err
	}
	vf.writeHeader(uint64(vf.dim), 0)
	return nil
}

func (vf *VectorFile) readHeader() (dim uint64, count uint64, err error) {
	if len(vf.mapped) < fileHeaderSize {
		return 0, 0, fmt.Errorf("vector file too small for header")
	}
	var mg [8]byte
	copy(mg[:], vf.mapped[:8])
	if mg != fileMagic {
		return 0, 0, errors.New("invalid vector file header: delete the file to reset")
	}
	dim = binary.LittleEndian.Uint64(vf.mapped[8:16])
	count = binary.LittleEndian.Uint64(vf.mapped[16:24])
	return dim, count, nil
}

func (vf *VectorFile) writeHeader(dim, count uint64) {
	copy(vf.mapped[:8], fileMagic[:])
	binary.LittleEndian.PutUint64(vf.mapped[8:16], dim)
	binary.LittleEndian.PutUint64(vf.mapped[16:24], count)
}

func (vf *VectorFile) resize(newSize int64) error {
	if err := vf.munmap(); err != nil {
		return err
	}
	return vf.file.Truncate(newSize)
}

func (vf *VectorFile) remap() error {
	if err := vf.munmap(); err != nil {
		return err
	}
	fi, err := vf.file.Stat()
	if err != nil {
		return err
	}
	if fi.Size() == 0 {
		return nil
	}
	return vf.mmap(fi.Size())
}

// Append writes a new row and returns its row index.
func (vf *VectorFile) Append(docID uint64, v Vector) (uint64, error) {
	vf.mu.Lock()
	defer vf.mu.Unlock()

	if len(v) != vf.dim {
		return 0, fmt.Errorf("vector dimension mismatch: expected %d, got %d", vf.dim, len(v))
	}

	required := fileHeaderSize + rowSize(vf.dim)*int64(vf.rowCount+1)
	if required > int64(len(vf.mapped)) {
		newSize := int64(len(vf.mapped)) + int64(len(vf.mapped))/2
		if newSize < required {
			newSize = required
		}
		if err := vf.resize(newSize); err != nil {
			return 0, err
		}
		if err := vf.remap(); err != nil {
			return 0, err
		}
		vf.writeHeader(uint64(vf.dim), vf.rowCount)
	}

	offset := fileHeaderSize + int64(vf.rowCount)*rowSize(vf.dim)
	binary.LittleEndian.PutUint64(vf.mapped[offset:], docID)
	for i, x := range v {
		bits := *(*uint32)(unsafe.Pointer(&x))
		binary.LittleEndian.PutUint32(vf.mapped[offset+rowHeaderSize+int64(i)*floatSize:], bits)
	}

	vf.rowCount++
	vf.writeHeader(uint64(vf.dim), vf.rowCount)

	return vf.rowCount - 1, nil
}

// Row reads back the docID and vector stored at row index.
func (vf *VectorFile) Row(index uint64) (uint64, Vector, error) {
	vf.mu.RLock()
	defer vf.mu.RUnlock()

	if index >= vf.rowCount {
		return 0, nil, fmt.Errorf("row index out of range: %d >= %d", index, vf.rowCount)
	}
	offset := fileHeaderSize + int64(index)*rowSize(vf.dim)
	docID := binary.LittleEndian.Uint64(vf.mapped[offset:])
	v := make(Vector, vf.dim)
	for i := 0; i < vf.dim; i++ {
		bits := binary.LittleEndian.Uint32(vf.mapped[offset+rowHeaderSize+int64(i)*floatSize:])
		v[i] = *(*float32)(unsafe.Pointer(&bits))
	}
	return docID, v, nil
}

// RowCount returns the number of rows ever appended (including
// superseded ones).
func (vf *VectorFile) RowCount() uint64 {
	vf.mu.RLock()
	defer vf.mu.RUnlock()
	return vf.rowCount
}

func (vf *VectorFile) Close() error {
	vf.mu.Lock()
	defer vf.mu.Unlock()
	_ = vf.munmap()
	return vf.file.Close()
}
