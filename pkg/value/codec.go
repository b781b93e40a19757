package value

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/orneryd/nornicexpr/pkg/pool"
)

// codecVersion prefixes every Marshal output.
const codecVersion = 1

// Marshal encodes v as MessagePack. Every value is written as an array
// whose first element is its DataType tag. Map keys are written in sorted
// order so equal values always produce identical bytes.
func Marshal(v Value) ([]byte, error) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	enc := msgpack.NewEncoder(buf)
	if err := enc.EncodeUint8(codecVersion); err != nil {
		return nil, err
	}
	if err := EncodeValue(enc, v); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

// Unmarshal decodes bytes produced by Marshal.
func Unmarshal(data []byte) (Value, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	version, err := dec.DecodeUint8()
	if err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	if version != codecVersion {
		return nil, fmt.Errorf("decode value: unsupported codec version %d", version)
	}
	return DecodeValue(dec)
}

// Msgpack wraps a Value so it can be embedded in msgpack-encoded structs.
type Msgpack struct {
	Value Value
}

var (
	_ msgpack.CustomEncoder = (*Msgpack)(nil)
	_ msgpack.CustomDecoder = (*Msgpack)(nil)
)

// EncodeMsgpack implements msgpack.CustomEncoder.
func (m *Msgpack) EncodeMsgpack(enc *msgpack.Encoder) error {
	return EncodeValue(enc, m.Value)
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (m *Msgpack) DecodeMsgpack(dec *msgpack.Decoder) error {
	v, err := DecodeValue(dec)
	if err != nil {
		return err
	}
	m.Value = v
	return nil
}

// EncodeValue writes v to enc.
func EncodeValue(enc *msgpack.Encoder, v Value) error {
	if v == nil {
		v = EmptyValue
	}
	w := &writer{enc: enc}
	w.value(v)
	return w.err
}

// writer accumulates the first encoding error so the encoders read as a
// flat list of fields.
type writer struct {
	enc *msgpack.Encoder
	err error
}

func (w *writer) do(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

func (w *writer) header(t DataType, fields int) {
	w.do(w.enc.EncodeArrayLen(fields + 1))
	w.do(w.enc.EncodeUint8(uint8(t)))
}

func (w *writer) int(i int64)     { w.do(w.enc.EncodeInt(i)) }
func (w *writer) uint(u uint64)   { w.do(w.enc.EncodeUint(u)) }
func (w *writer) str(s string)    { w.do(w.enc.EncodeString(s)) }
func (w *writer) float(f float64) { w.do(w.enc.EncodeFloat64(f)) }

func (w *writer) value(v Value) {
	if w.err != nil {
		return
	}
	switch x := v.(type) {
	case Empty:
		w.header(TypeEmpty, 0)
	case Null:
		w.header(TypeNull, 1)
		w.uint(uint64(x.Kind))
	case Bool:
		w.header(TypeBool, 1)
		w.do(w.enc.EncodeBool(bool(x)))
	case Int:
		w.header(TypeInt, 1)
		w.int(int64(x))
	case Float:
		w.header(TypeFloat, 1)
		w.float(float64(x))
	case String:
		w.header(TypeString, 1)
		w.str(string(x))
	case Date:
		w.header(TypeDate, 3)
		w.date(x)
	case Time:
		w.header(TypeTime, 4)
		w.time(x)
	case DateTime:
		w.header(TypeDateTime, 7)
		w.date(x.Date)
		w.time(x.Time)
	case Duration:
		w.header(TypeDuration, 3)
		w.int(x.Seconds)
		w.int(int64(x.Microseconds))
		w.int(int64(x.Months))
	case Geography:
		w.header(TypeGeography, 2)
		w.float(x.Latitude)
		w.float(x.Longitude)
	case List:
		w.header(TypeList, 1)
		w.list(x)
	case Map:
		w.header(TypeMap, 1)
		w.hashMap(x)
	case *Set:
		w.header(TypeSet, 1)
		w.list(x.Items())
	case *Vertex:
		w.vertex(x)
	case *Edge:
		w.edge(x)
	case *Path:
		w.header(TypePath, 2)
		if x == nil {
			x = &Path{}
		}
		w.vertex(x.Src)
		w.do(w.enc.EncodeArrayLen(len(x.Steps)))
		for _, s := range x.Steps {
			w.do(w.enc.EncodeArrayLen(2))
			w.vertex(s.Dst)
			w.edge(s.Edge)
		}
	case *DataSet:
		w.header(TypeDataSet, 2)
		if x == nil {
			x = &DataSet{}
		}
		w.do(w.enc.EncodeArrayLen(len(x.ColNames)))
		for _, c := range x.ColNames {
			w.str(c)
		}
		w.do(w.enc.EncodeArrayLen(len(x.Rows)))
		for _, row := range x.Rows {
			w.list(row)
		}
	default:
		w.do(fmt.Errorf("encode value: unsupported variant %T", v))
	}
}

func (w *writer) date(d Date) {
	w.int(int64(d.Year))
	w.uint(uint64(d.Month))
	w.uint(uint64(d.Day))
}

func (w *writer) time(t Time) {
	w.uint(uint64(t.Hour))
	w.uint(uint64(t.Minute))
	w.uint(uint64(t.Second))
	w.uint(uint64(t.Microsecond))
}

func (w *writer) list(l []Value) {
	w.do(w.enc.EncodeArrayLen(len(l)))
	for _, e := range l {
		w.value(orEmpty(e))
	}
}

func (w *writer) hashMap(m Map) {
	w.do(w.enc.EncodeMapLen(len(m)))
	for _, k := range m.SortedKeys() {
		w.str(k)
		w.value(orEmpty(m[k]))
	}
}

func (w *writer) vertex(v *Vertex) {
	if v == nil {
		w.do(w.enc.EncodeNil())
		return
	}
	w.header(TypeVertex, 3)
	w.value(orEmpty(v.VID))
	w.do(w.enc.EncodeArrayLen(len(v.Tags)))
	for _, t := range v.Tags {
		w.do(w.enc.EncodeArrayLen(2))
		w.str(t.Name)
		w.hashMap(t.Props)
	}
	w.hashMap(v.Props)
}

func (w *writer) edge(e *Edge) {
	if e == nil {
		w.do(w.enc.EncodeNil())
		return
	}
	w.header(TypeEdge, 5)
	w.value(orEmpty(e.Src))
	w.value(orEmpty(e.Dst))
	w.str(e.EdgeType)
	w.int(e.Ranking)
	w.hashMap(e.Props)
}

func orEmpty(v Value) Value {
	if v == nil {
		return EmptyValue
	}
	return v
}

// ============================================================================
// Decoding
// ============================================================================

// DecodeValue reads one value written by EncodeValue.
func DecodeValue(dec *msgpack.Decoder) (Value, error) {
	r := &reader{dec: dec}
	v := r.value()
	if r.err != nil {
		return nil, fmt.Errorf("decode value: %w", r.err)
	}
	return v, nil
}

type reader struct {
	dec *msgpack.Decoder
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

func (r *reader) int() int64 {
	if r.err != nil {
		return 0
	}
	i, err := r.dec.DecodeInt64()
	r.fail(err)
	return i
}

func (r *reader) uint() uint64 {
	if r.err != nil {
		return 0
	}
	u, err := r.dec.DecodeUint64()
	r.fail(err)
	return u
}

func (r *reader) str() string {
	if r.err != nil {
		return ""
	}
	s, err := r.dec.DecodeString()
	r.fail(err)
	return s
}

func (r *reader) float() float64 {
	if r.err != nil {
		return 0
	}
	f, err := r.dec.DecodeFloat64()
	r.fail(err)
	return f
}

func (r *reader) arrayLen() int {
	if r.err != nil {
		return 0
	}
	n, err := r.dec.DecodeArrayLen()
	r.fail(err)
	if n < 0 && r.err == nil {
		r.fail(fmt.Errorf("unexpected nil array"))
	}
	return n
}

// header reads the array header and tag, checking the field count.
func (r *reader) header() (DataType, int) {
	n := r.arrayLen()
	if r.err != nil {
		return TypeEmpty, 0
	}
	if n < 1 {
		r.fail(fmt.Errorf("empty value array"))
		return TypeEmpty, 0
	}
	tag, err := r.dec.DecodeUint8()
	r.fail(err)
	return DataType(tag), n - 1
}

func (r *reader) expect(t DataType, got, want int) bool {
	if got != want {
		r.fail(fmt.Errorf("%s: expected %d fields, got %d", t, want, got))
		return false
	}
	return true
}

func (r *reader) value() Value {
	t, n := r.header()
	if r.err != nil {
		return nil
	}
	return r.body(t, n)
}

// fieldCounts is the number of payload fields following each tag.
var fieldCounts = map[DataType]int{
	TypeEmpty: 0, TypeNull: 1, TypeBool: 1, TypeInt: 1, TypeFloat: 1,
	TypeString: 1, TypeDate: 3, TypeTime: 4, TypeDateTime: 7,
	TypeDuration: 3, TypeGeography: 2, TypeList: 1, TypeMap: 1,
	TypeSet: 1, TypeVertex: 3, TypeEdge: 5, TypePath: 2, TypeDataSet: 2,
}

func (r *reader) body(t DataType, n int) Value {
	want, known := fieldCounts[t]
	if !known {
		r.fail(fmt.Errorf("unknown value tag %d", uint8(t)))
		return nil
	}
	if !r.expect(t, n, want) {
		return nil
	}

	switch t {
	case TypeEmpty:
		return EmptyValue
	case TypeNull:
		k := r.uint()
		if k >= uint64(len(nullKindNames)) {
			r.fail(fmt.Errorf("unknown null kind %d", k))
			return nil
		}
		return Null{Kind: NullKind(k)}
	case TypeBool:
		b, err := r.dec.DecodeBool()
		r.fail(err)
		return Bool(b)
	case TypeInt:
		return Int(r.int())
	case TypeFloat:
		return Float(r.float())
	case TypeString:
		return String(r.str())
	case TypeDate:
		return r.date()
	case TypeTime:
		return r.time()
	case TypeDateTime:
		d := r.date()
		return DateTime{Date: d, Time: r.time()}
	case TypeDuration:
		secs := r.int()
		micros := r.int()
		return Duration{Seconds: secs, Microseconds: int32(micros), Months: int32(r.int())}
	case TypeGeography:
		lat := r.float()
		return Geography{Latitude: lat, Longitude: r.float()}
	case TypeList:
		return List(r.list())
	case TypeMap:
		return r.hashMap()
	case TypeSet:
		return NewSet(r.list()...)
	case TypeVertex:
		return r.vertexBody()
	case TypeEdge:
		return r.edgeBody()
	case TypePath:
		p := &Path{Src: r.vertex()}
		steps := r.arrayLen()
		for i := 0; i < steps && r.err == nil; i++ {
			r.expect(TypePath, r.arrayLen(), 2)
			p.Steps = append(p.Steps, Step{Dst: r.vertex(), Edge: r.edge()})
		}
		return p
	case TypeDataSet:
		ds := &DataSet{}
		cols := r.arrayLen()
		for i := 0; i < cols && r.err == nil; i++ {
			ds.ColNames = append(ds.ColNames, r.str())
		}
		rows := r.arrayLen()
		for i := 0; i < rows && r.err == nil; i++ {
			ds.Rows = append(ds.Rows, r.list())
		}
		return ds
	}
	return nil
}

func (r *reader) date() Date {
	y := r.int()
	m := r.uint()
	return Date{Year: int32(y), Month: uint32(m), Day: uint32(r.uint())}
}

func (r *reader) time() Time {
	h := r.uint()
	mi := r.uint()
	s := r.uint()
	return Time{Hour: uint32(h), Minute: uint32(mi), Second: uint32(s), Microsecond: uint32(r.uint())}
}

func (r *reader) list() []Value {
	n := r.arrayLen()
	out := make([]Value, 0, max(n, 0))
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.value())
	}
	return out
}

func (r *reader) hashMap() Map {
	if r.err != nil {
		return nil
	}
	n, err := r.dec.DecodeMapLen()
	r.fail(err)
	out := make(Map, max(n, 0))
	for i := 0; i < n && r.err == nil; i++ {
		k := r.str()
		out[k] = r.value()
	}
	return out
}

func (r *reader) vertex() *Vertex {
	if r.err != nil {
		return nil
	}
	code, err := r.dec.PeekCode()
	if err != nil {
		r.fail(err)
		return nil
	}
	if code == msgpcode.Nil {
		r.fail(r.dec.DecodeNil())
		return nil
	}
	t, n := r.header()
	if t != TypeVertex {
		r.fail(fmt.Errorf("expected VERTEX, got %s", t))
		return nil
	}
	if !r.expect(t, n, 3) {
		return nil
	}
	return r.vertexBody()
}

func (r *reader) vertexBody() *Vertex {
	v := &Vertex{VID: r.value()}
	tags := r.arrayLen()
	for i := 0; i < tags && r.err == nil; i++ {
		r.expect(TypeVertex, r.arrayLen(), 2)
		name := r.str()
		v.Tags = append(v.Tags, Tag{Name: name, Props: r.hashMap()})
	}
	v.Props = r.hashMap()
	return v
}

func (r *reader) edge() *Edge {
	if r.err != nil {
		return nil
	}
	code, err := r.dec.PeekCode()
	if err != nil {
		r.fail(err)
		return nil
	}
	if code == msgpcode.Nil {
		r.fail(r.dec.DecodeNil())
		return nil
	}
	t, n := r.header()
	if t != TypeEdge {
		r.fail(fmt.Errorf("expected EDGE, got %s", t))
		return nil
	}
	if !r.expect(t, n, 5) {
		return nil
	}
	return r.edgeBody()
}

func (r *reader) edgeBody() *Edge {
	e := &Edge{Src: r.value()}
	e.Dst = r.value()
	e.EdgeType = r.str()
	e.Ranking = r.int()
	e.Props = r.hashMap()
	return e
}
