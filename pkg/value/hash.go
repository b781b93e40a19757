package value

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// canonicalNaN is the single bit pattern every NaN hashes as.
const canonicalNaN = 0x7ff8000000000000

// Hash returns a 64-bit xxhash of v consistent with Equal: equal values
// always hash equal. Each variant writes its DataType discriminant byte
// followed by its payload; maps hash entries in sorted key order and sets
// hash their sorted members.
func Hash(v Value) uint64 {
	h := hasher{d: xxhash.New()}
	h.value(v)
	return h.d.Sum64()
}

type hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func (h *hasher) byte(b byte) {
	h.buf[0] = b
	_, _ = h.d.Write(h.buf[:1])
}

func (h *hasher) uint64(x uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], x)
	_, _ = h.d.Write(h.buf[:])
}

func (h *hasher) int64(x int64) { h.uint64(uint64(x)) }

func (h *hasher) float(f float64) { h.uint64(FloatBits(f)) }

// string writes a length prefix so that ("ab","c") and ("a","bc") differ.
func (h *hasher) string(s string) {
	h.uint64(uint64(len(s)))
	_, _ = h.d.WriteString(s)
}

// FloatBits returns the IEEE bits of f with every NaN mapped to one
// canonical pattern and -0.0 mapped to +0.0.
func FloatBits(f float64) uint64 {
	if math.IsNaN(f) {
		return canonicalNaN
	}
	if f == 0 {
		return 0
	}
	return math.Float64bits(f)
}

func (h *hasher) value(v Value) {
	if v == nil {
		v = EmptyValue
	}
	h.byte(byte(v.Type()))
	switch x := v.(type) {
	case Empty:
	case Null:
		h.byte(byte(x.Kind))
	case Bool:
		if x {
			h.byte(1)
		} else {
			h.byte(0)
		}
	case Int:
		h.int64(int64(x))
	case Float:
		h.float(float64(x))
	case String:
		h.string(string(x))
	case Date:
		h.date(x)
	case Time:
		h.time(x)
	case DateTime:
		h.date(x.Date)
		h.time(x.Time)
	case Duration:
		h.int64(x.Seconds)
		h.int64(int64(x.Microseconds))
		h.int64(int64(x.Months))
	case Geography:
		h.float(x.Latitude)
		h.float(x.Longitude)
	case List:
		h.list(x)
	case Map:
		h.hashMap(x)
	case *Set:
		h.list(x.Items())
	case *Vertex:
		h.vertex(x)
	case *Edge:
		h.edge(x)
	case *Path:
		if x == nil {
			h.byte(0)
			return
		}
		h.vertex(x.Src)
		h.uint64(uint64(len(x.Steps)))
		for _, s := range x.Steps {
			h.vertex(s.Dst)
			h.edge(s.Edge)
		}
	case *DataSet:
		if x == nil {
			h.byte(0)
			return
		}
		h.uint64(uint64(len(x.ColNames)))
		for _, c := range x.ColNames {
			h.string(c)
		}
		h.uint64(uint64(len(x.Rows)))
		for _, row := range x.Rows {
			h.list(row)
		}
	}
}

func (h *hasher) date(d Date) {
	h.int64(int64(d.Year))
	h.byte(byte(d.Month))
	h.byte(byte(d.Day))
}

func (h *hasher) time(t Time) {
	h.byte(byte(t.Hour))
	h.byte(byte(t.Minute))
	h.byte(byte(t.Second))
	h.uint64(uint64(t.Microsecond))
}

func (h *hasher) list(l []Value) {
	h.uint64(uint64(len(l)))
	for _, e := range l {
		h.value(e)
	}
}

func (h *hasher) hashMap(m Map) {
	h.uint64(uint64(len(m)))
	for _, k := range m.SortedKeys() {
		h.string(k)
		h.value(m[k])
	}
}

func (h *hasher) vertex(v *Vertex) {
	if v == nil {
		h.byte(0)
		return
	}
	h.byte(1)
	h.value(v.VID)
	h.uint64(uint64(len(v.Tags)))
	for _, t := range v.Tags {
		h.string(t.Name)
		h.hashMap(t.Props)
	}
	h.hashMap(v.Props)
}

func (h *hasher) edge(e *Edge) {
	if e == nil {
		h.byte(0)
		return
	}
	h.byte(1)
	h.value(e.Src)
	h.value(e.Dst)
	h.string(e.EdgeType)
	h.int64(e.Ranking)
	h.hashMap(e.Props)
}
