package index

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/golang/snappy"
)

// Matrix holds one sparse TF-IDF row per indexed document.
type Matrix struct {
	Rows [][]Term
}

// Serialize encodes the matrix as snappy-compressed binary. The raw format
// is:
//   - 8 bytes: row count (uint64, little-endian)
//   - per row: 4 bytes entry count (uint32), then per entry 4 bytes term
//     index (uint32) and 8 bytes weight (float64 bits), all little-endian
func (m *Matrix) Serialize() []byte {
	size := 8
	for _, row := range m.Rows {
		size += 4 + len(row)*12
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(len(m.Rows)))

	offset := 8
	for _, row := range m.Rows {
		binary.LittleEndian.PutUint32(buf[offset:offset+4], uint32(len(row)))
		offset += 4
		for _, term := range row {
			binary.LittleEndian.PutUint32(buf[offset:offset+4], uint32(term.Index))
			binary.LittleEndian.PutUint64(buf[offset+4:offset+12], math.Float64bits(term.Value))
			offset += 12
		}
	}

	return snappy.Encode(nil, buf)
}

// DeserializeMatrix decodes a matrix produced by Serialize.
func DeserializeMatrix(compressed []byte) (*Matrix, error) {
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("matrix: snappy decode failed: %w", err)
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("matrix: data too short")
	}

	rowCount := binary.LittleEndian.Uint64(data[0:8])
	rows := make([][]Term, 0, rowCount)

	offset := 8
	for r := uint64(0); r < rowCount; r++ {
		if offset+4 > len(data) {
			return nil, fmt.Errorf("matrix: truncated at row %d", r)
		}
		entries := binary.LittleEndian.Uint32(data[offset : offset+4])
		offset += 4

		if offset+int(entries)*12 > len(data) {
			return nil, fmt.Errorf("matrix: truncated at row %d entries", r)
		}
		row := make([]Term, entries)
		for i := range row {
			row[i].Index = int(binary.LittleEndian.Uint32(data[offset : offset+4]))
			row[i].Value = math.Float64frombits(binary.LittleEndian.Uint64(data[offset+4 : offset+12]))
			offset += 12
		}
		rows = append(rows, row)
	}

	return &Matrix{Rows: rows}, nil
}
