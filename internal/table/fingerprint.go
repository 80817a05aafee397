package table

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// cell tags keep "1" (string) and 1 (int) from hashing identically.
const (
	tagNil byte = iota
	tagString
	tagInt
	tagFloat
)

// Fingerprint returns an xxh3 hash over the schema and every cell, in order.
// Two tables with equal fingerprints have the same column names, types and
// values. All NaN payloads hash the same, so a table containing NaN still
// equals itself under this comparison.
func (t *Table) Fingerprint() uint64 {
	h := xxh3.New()
	var buf [9]byte

	writeStr := func(s string) {
		binary.LittleEndian.PutUint64(buf[:8], uint64(len(s)))
		_, _ = h.Write(buf[:8])
		_, _ = h.Write([]byte(s))
	}

	for _, c := range t.Columns {
		writeStr(c.Name)
		buf[0] = byte(c.Type)
		_, _ = h.Write(buf[:1])
	}
	for _, r := range t.Rows {
		for _, v := range r {
			switch x := v.(type) {
			case nil:
				buf[0] = tagNil
				_, _ = h.Write(buf[:1])
			case string:
				buf[0] = tagString
				_, _ = h.Write(buf[:1])
				writeStr(x)
			case int64:
				buf[0] = tagInt
				binary.LittleEndian.PutUint64(buf[1:], uint64(x))
				_, _ = h.Write(buf[:9])
			case float64:
				if math.IsNaN(x) {
					x = math.NaN()
				}
				buf[0] = tagFloat
				binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(x))
				_, _ = h.Write(buf[:9])
			}
		}
	}
	return h.Sum64()
}
