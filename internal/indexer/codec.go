package indexer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/vector"
)

// Index entry layout (little endian):
//
//	magic "YOMUIDX1", version uint32,
//	vector.MemoryIndex encoding,
//	chunk count uint32, then per chunk: index, start, end, text length (uint32 each), text bytes.
const (
	indexMagic   = "YOMUIDX1"
	indexVersion = uint32(1)
	maxChunkText = 1 << 26
)

func encodeIndex(idx *Index) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(indexMagic)
	_ = binary.Write(&buf, binary.LittleEndian, indexVersion)
	if err := idx.Vectors.Encode(&buf); err != nil {
		return nil, err
	}
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(idx.Chunks)))
	for _, c := range idx.Chunks {
		hdr := [4]uint32{uint32(c.Index), uint32(c.Start), uint32(c.End), uint32(len(c.Text))}
		_ = binary.Write(&buf, binary.LittleEndian, hdr)
		buf.WriteString(c.Text)
	}
	return buf.Bytes(), nil
}

func decodeIndex(data []byte) (vector.VectorIndex, []models.Chunk, error) {
	r := bytes.NewReader(data)
	magic := make([]byte, len(indexMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != indexMagic {
		return nil, nil, fmt.Errorf("not an index entry")
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, nil, fmt.Errorf("read version: %w", err)
	}
	if version != indexVersion {
		return nil, nil, fmt.Errorf("unsupported index version %d", version)
	}
	vecs, err := vector.ReadMemoryIndex(r)
	if err != nil {
		return nil, nil, err
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, nil, fmt.Errorf("read chunk count: %w", err)
	}
	if int(n) != vecs.Size() {
		return nil, nil, fmt.Errorf("chunk count %d does not match %d vectors", n, vecs.Size())
	}
	if err := checkIDs(vecs.IDs(), int(n)); err != nil {
		return nil, nil, err
	}
	chunks := make([]models.Chunk, 0, n)
	for i := uint32(0); i < n; i++ {
		var hdr [4]uint32
		if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
			return nil, nil, fmt.Errorf("read chunk %d: %w", i, err)
		}
		if hdr[3] > maxChunkText || int(hdr[3]) > r.Len() {
			return nil, nil, fmt.Errorf("chunk %d: bad text length %d", i, hdr[3])
		}
		text := make([]byte, hdr[3])
		if _, err := io.ReadFull(r, text); err != nil {
			return nil, nil, fmt.Errorf("read chunk %d text: %w", i, err)
		}
		chunks = append(chunks, models.Chunk{
			Index: int(hdr[0]),
			Start: int(hdr[1]),
			End:   int(hdr[2]),
			Text:  string(text),
		})
	}
	if r.Len() != 0 {
		return nil, nil, fmt.Errorf("%d trailing bytes", r.Len())
	}
	return vecs, chunks, nil
}

// checkIDs requires ids to be a permutation of [0, n), since retrieval uses
// each vector ID as a position in the chunk table.
func checkIDs(ids []int, n int) error {
	seen := make([]bool, n)
	for _, id := range ids {
		if id < 0 || id >= n {
			return fmt.Errorf("vector id %d out of range [0, %d)", id, n)
		}
		if seen[id] {
			return fmt.Errorf("duplicate vector id %d", id)
		}
		seen[id] = true
	}
	return nil
}
