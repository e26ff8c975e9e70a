package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
)

// Limits applied when decoding, so a corrupt entry cannot force a huge allocation.
const (
	maxDimensions = 1 << 16
	maxVectors    = 1 << 24
)

// MemoryIndex is an in-memory vector index using brute-force inner product search.
type MemoryIndex struct {
	dimensions int
	ids        []int
	vectors    [][]float32
	mu         sync.RWMutex
}

var _ VectorIndex = (*MemoryIndex)(nil)

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{dimensions: dimensions}, nil
}

// ReadMemoryIndex decodes an index written by Encode.
func ReadMemoryIndex(r io.Reader) (*MemoryIndex, error) {
	m := &MemoryIndex{}
	if err := m.Decode(r); err != nil {
		return nil, err
	}
	return m, nil
}

// Add appends vectors with the given IDs.
func (m *MemoryIndex) Add(ctx context.Context, ids []int, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, vec := range vectors {
		if len(vec) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vec), m.dimensions)
		}
	}
	for i, id := range ids {
		vec := make([]float32, m.dimensions)
		copy(vec, vectors[i])
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Search returns the top-k vectors by inner product. The sort is stable, so
// vectors with equal scores come back in the order they were added.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	if k <= 0 || len(m.ids) == 0 {
		return nil, nil
	}
	results := make([]VectorResult, len(m.ids))
	for i, vec := range m.vectors {
		results[i] = VectorResult{ID: m.ids[i], Score: InnerProduct(query, vec)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Encode writes the index. Format (little endian): dimension (4), n (4),
// then per vector: id (4), vector (dimension*4 bytes).
func (m *MemoryIndex) Encode(w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(m.ids))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	buf := make([]byte, 4+m.dimensions*4)
	for i, id := range m.ids {
		binary.LittleEndian.PutUint32(buf[:4], uint32(id))
		putFloat32s(buf[4:], m.vectors[i])
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return bw.Flush()
}

// Decode replaces the index contents and dimension with those read from r.
func (m *MemoryIndex) Decode(r io.Reader) error {
	var dim, n uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if dim == 0 || dim > maxDimensions {
		return fmt.Errorf("invalid dimensions %d", dim)
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	if n > maxVectors {
		return fmt.Errorf("invalid vector count %d", n)
	}
	ids := make([]int, 0, n)
	vectors := make([][]float32, 0, n)
	buf := make([]byte, 4+int(dim)*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("read vector %d: %w", i, err)
		}
		ids = append(ids, int(binary.LittleEndian.Uint32(buf[:4])))
		vectors = append(vectors, getFloat32s(buf[4:]))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimensions = int(dim)
	m.ids = ids
	m.vectors = vectors
	return nil
}

func putFloat32s(dst []byte, s []float32) {
	for i, v := range s {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

func getFloat32s(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// IDs returns a copy of the vector IDs in insertion order.
func (m *MemoryIndex) IDs() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.ids...)
}

// Dimensions returns the vector dimension.
func (m *MemoryIndex) Dimensions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dimensions
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
