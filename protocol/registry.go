package protocol

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"go.uber.org/multierr"
)

// Arg is one declared argument of a method or one content property
type Arg struct {
	Name     string
	Type     FieldType
	Reserved bool
}

// MethodSpec describes one AMQP method
type MethodSpec struct {
	ClassID  uint16
	MethodID uint16
	Name     string // e.g. "queue.declare"
	Args     []Arg
	Content  bool     // followed by a content header and body frames
	Sync     bool     // the peer answers with one of Replies
	Replies  []uint16 // method ids in the same class

	new func() Method
}

// New returns a zero record for the method
func (s *MethodSpec) New() Method {
	return s.new()
}

// IsReply reports whether classID.methodID answers this method
func (s *MethodSpec) IsReply(classID, methodID uint16) bool {
	if classID != s.ClassID {
		return false
	}
	for _, id := range s.Replies {
		if id == methodID {
			return true
		}
	}
	return false
}

func (s *MethodSpec) String() string {
	return s.Name
}

// ClassSpec describes one AMQP class. Properties is empty for classes that
// carry no content.
type ClassSpec struct {
	ID         uint16
	Name       string
	Properties []Arg
}

// Registry is the read-only table of classes and methods for one protocol
// version, together with the version's protocol header.
type Registry struct {
	Name         string // "0-9-1" or "0-8"
	Header       [8]byte
	VersionMajor uint8 // announced in connection.start
	VersionMinor uint8

	classes map[uint16]*ClassSpec
	methods map[uint32]*MethodSpec
	names   map[string]*MethodSpec
	replies map[uint32]bool
	ordered []*MethodSpec
}

func newRegistry(name string, header [8]byte, major, minor uint8, classes []ClassSpec, methods []MethodSpec) *Registry {
	r := &Registry{
		Name:         name,
		Header:       header,
		VersionMajor: major,
		VersionMinor: minor,
		classes:      make(map[uint16]*ClassSpec, len(classes)),
		methods:      make(map[uint32]*MethodSpec, len(methods)),
		names:        make(map[string]*MethodSpec, len(methods)),
		replies:      make(map[uint32]bool),
	}
	for i := range classes {
		r.classes[classes[i].ID] = &classes[i]
	}
	for i := range methods {
		m := &methods[i]
		r.methods[key(m.ClassID, m.MethodID)] = m
		r.names[m.Name] = m
		r.ordered = append(r.ordered, m)
		for _, id := range m.Replies {
			r.replies[key(m.ClassID, id)] = true
		}
	}
	sort.Slice(r.ordered, func(i, j int) bool {
		a, b := r.ordered[i], r.ordered[j]
		if a.ClassID != b.ClassID {
			return a.ClassID < b.ClassID
		}
		return a.MethodID < b.MethodID
	})
	return r
}

func key(classID, methodID uint16) uint32 {
	return uint32(classID)<<16 | uint32(methodID)
}

// String returns the protocol version name
func (r *Registry) String() string {
	return "AMQP " + r.Name
}

// Lookup finds a method by class and method id
func (r *Registry) Lookup(classID, methodID uint16) (*MethodSpec, error) {
	if spec, ok := r.methods[key(classID, methodID)]; ok {
		return spec, nil
	}
	return nil, &UnknownMethodError{ClassID: classID, MethodID: methodID}
}

// LookupName finds a method by its dotted name
func (r *Registry) LookupName(name string) (*MethodSpec, error) {
	if spec, ok := r.names[name]; ok {
		return spec, nil
	}
	return nil, fmt.Errorf("amqp: unknown method %q in %s", name, r)
}

// IsResponse reports whether classID.methodID is sent only in answer to a
// synchronous request
func (r *Registry) IsResponse(classID, methodID uint16) bool {
	return r.replies[key(classID, methodID)]
}

// Class finds a class by id
func (r *Registry) Class(id uint16) (*ClassSpec, error) {
	if c, ok := r.classes[id]; ok {
		return c, nil
	}
	return nil, &UnknownClassError{ClassID: id}
}

// Methods returns every method, ordered by class and method id
func (r *Registry) Methods() []*MethodSpec {
	out := make([]*MethodSpec, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Validate verifies that every method record binds every declared argument
// with storage of the matching type.
func (r *Registry) Validate() error {
	var err error
	for _, spec := range r.ordered {
		m := spec.new()
		if c, id := m.ID(); c != spec.ClassID || id != spec.MethodID {
			err = multierr.Append(err, fmt.Errorf("%s: record reports id %d.%d", spec.Name, c, id))
		}
		if _, cerr := r.Class(spec.ClassID); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", spec.Name, cerr))
		}
		fields := m.Fields()
		for _, arg := range spec.Args {
			ptr, ok := lookupField(fields, arg.Name)
			if !ok {
				err = multierr.Append(err, fmt.Errorf("%s: no field bound to %q", spec.Name, arg.Name))
				continue
			}
			if !bindsType(arg.Type, ptr) {
				err = multierr.Append(err, fmt.Errorf("%s: field %q is %T, want %s", spec.Name, arg.Name, ptr, arg.Type))
			}
		}
	}
	return err
}

// Encode writes the class id, method id and arguments of m at the cursor
func (r *Registry) Encode(buf *Buffer, m Method) error {
	spec, err := r.Lookup(m.ID())
	if err != nil {
		return err
	}
	buf.WriteShort(spec.ClassID)
	buf.WriteShort(spec.MethodID)
	return encodeArgs(buf, spec.Name, spec.Args, m.Fields())
}

// Decode reads a method (class id, method id, arguments) from the cursor
func (r *Registry) Decode(buf *Buffer) (Method, error) {
	classID, err := buf.ReadShort()
	if err != nil {
		return nil, err
	}
	methodID, err := buf.ReadShort()
	if err != nil {
		return nil, err
	}
	return r.DecodeMethod(classID, methodID, buf)
}

// DecodeMethod reads the arguments of a known method from the cursor
func (r *Registry) DecodeMethod(classID, methodID uint16, buf *Buffer) (Method, error) {
	spec, err := r.Lookup(classID, methodID)
	if err != nil {
		return nil, err
	}
	m := spec.new()
	if err := decodeArgs(buf, spec.Name, spec.Args, m.Fields()); err != nil {
		return nil, err
	}
	return m, nil
}

// New returns a zero record for class.method
func (r *Registry) New(classID, methodID uint16) (Method, error) {
	spec, err := r.Lookup(classID, methodID)
	if err != nil {
		return nil, err
	}
	return spec.new(), nil
}

// Build constructs a method from positional values given in declared
// argument order. Reserved arguments are skipped and keep their zero value;
// trailing arguments may be omitted.
func (r *Registry) Build(name string, values ...any) (Method, error) {
	spec, err := r.LookupName(name)
	if err != nil {
		return nil, err
	}
	m := spec.new()
	fields := m.Fields()
	i := 0
	for _, arg := range spec.Args {
		if arg.Reserved {
			continue
		}
		if i == len(values) {
			break
		}
		ptr, _ := lookupField(fields, arg.Name)
		if err := assign(ptr, values[i]); err != nil {
			return nil, fmt.Errorf("%s: argument %q: %w", name, arg.Name, err)
		}
		i++
	}
	if i < len(values) {
		return nil, fmt.Errorf("%s: %d values given, %d arguments declared", name, len(values), i)
	}
	return m, nil
}

// BuildNamed constructs a method from values keyed by argument name
func (r *Registry) BuildNamed(name string, values map[string]any) (Method, error) {
	spec, err := r.LookupName(name)
	if err != nil {
		return nil, err
	}
	m := spec.new()
	fields := m.Fields()
	for argName, v := range values {
		if !declares(spec.Args, argName) {
			return nil, fmt.Errorf("%s: no argument %q", name, argName)
		}
		ptr, _ := lookupField(fields, argName)
		if err := assign(ptr, v); err != nil {
			return nil, fmt.Errorf("%s: argument %q: %w", name, argName, err)
		}
	}
	return m, nil
}

// Equal reports whether a and b are the same method with equal arguments
func Equal(a, b Method) bool {
	if a == nil || b == nil {
		return a == b
	}
	ac, am := a.ID()
	bc, bm := b.ID()
	if ac != bc || am != bm {
		return false
	}
	af, bf := a.Fields(), b.Fields()
	if len(af) != len(bf) {
		return false
	}
	for i := range af {
		if af[i].Name != bf[i].Name || !valueEqual(deref(af[i].Ptr), deref(bf[i].Ptr)) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case Table:
		y, ok := b.(Table)
		if !ok || len(x) != len(y) {
			return false
		}
		return len(x) == 0 || reflect.DeepEqual(x, y)
	}
	return a == b
}

// NoWait reports whether m has its no-wait bit set. The peer sends no reply
// for such methods.
func NoWait(m Method) bool {
	for _, f := range m.Fields() {
		if f.Name == "no-wait" || f.Name == "nowait" {
			if p, ok := f.Ptr.(*bool); ok {
				return *p
			}
		}
	}
	return false
}

func declares(args []Arg, name string) bool {
	for _, a := range args {
		if a.Name == name {
			return true
		}
	}
	return false
}

func lookupField(fields []Field, name string) (any, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Ptr, true
		}
	}
	return nil, false
}

func encodeArgs(buf *Buffer, owner string, args []Arg, fields []Field) error {
	for _, arg := range args {
		ptr, ok := lookupField(fields, arg.Name)
		if !ok {
			return fmt.Errorf("%s: no field bound to %q", owner, arg.Name)
		}
		if err := buf.Write(arg.Type, deref(ptr)); err != nil {
			return fmt.Errorf("%s: argument %q: %w", owner, arg.Name, err)
		}
	}
	buf.FlushBits()
	return nil
}

func decodeArgs(buf *Buffer, owner string, args []Arg, fields []Field) error {
	for _, arg := range args {
		ptr, ok := lookupField(fields, arg.Name)
		if !ok {
			return fmt.Errorf("%s: no field bound to %q", owner, arg.Name)
		}
		v, err := buf.Read(arg.Type)
		if err != nil {
			return fmt.Errorf("%s: argument %q: %w", owner, arg.Name, err)
		}
		if err := store(ptr, v); err != nil {
			return fmt.Errorf("%s: argument %q: %w", owner, arg.Name, err)
		}
	}
	return nil
}

// deref returns the value behind a field pointer in the form Buffer.Write takes
func deref(ptr any) any {
	switch p := ptr.(type) {
	case *bool:
		return *p
	case *uint8:
		return *p
	case *uint16:
		return *p
	case *uint32:
		return *p
	case *uint64:
		return *p
	case *string:
		return *p
	case *Table:
		return *p
	case *time.Time:
		return *p
	default:
		return ptr
	}
}

// store writes a value returned by Buffer.Read into a field pointer
func store(ptr, v any) error {
	switch p := ptr.(type) {
	case *bool:
		x, ok := v.(bool)
		*p = x
		return storeErr(ok, ptr, v)
	case *uint8:
		x, ok := v.(uint8)
		*p = x
		return storeErr(ok, ptr, v)
	case *uint16:
		x, ok := v.(uint16)
		*p = x
		return storeErr(ok, ptr, v)
	case *uint32:
		x, ok := v.(uint32)
		*p = x
		return storeErr(ok, ptr, v)
	case *uint64:
		x, ok := v.(uint64)
		*p = x
		return storeErr(ok, ptr, v)
	case *string:
		x, ok := v.(string)
		*p = x
		return storeErr(ok, ptr, v)
	case *Table:
		x, ok := v.(Table)
		*p = x
		return storeErr(ok, ptr, v)
	case *time.Time:
		x, ok := v.(time.Time)
		*p = x
		return storeErr(ok, ptr, v)
	}
	return storeErr(false, ptr, v)
}

func storeErr(ok bool, ptr, v any) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: cannot store %T in %T", ErrUnsupportedValue, v, ptr)
}

func bindsType(t FieldType, ptr any) bool {
	switch ptr.(type) {
	case *bool:
		return t == Bit
	case *uint8:
		return t == Octet
	case *uint16:
		return t == Short
	case *uint32:
		return t == Long
	case *uint64:
		return t == LongLong
	case *string:
		return t == ShortStr || t == LongStr
	case *Table:
		return t == TableType
	case *time.Time:
		return t == Timestamp
	}
	return false
}

// assign stores a caller-supplied value. Integers convert between kinds when
// the value fits; anything else must be assignable as is.
func assign(ptr, v any) error {
	dst := reflect.ValueOf(ptr).Elem()
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}
	if isUint(dst.Kind()) {
		switch {
		case isInt(src.Kind()):
			n := src.Int()
			if n < 0 || dst.OverflowUint(uint64(n)) {
				return fmt.Errorf("%w: %d overflows %s", ErrUnsupportedValue, n, dst.Type())
			}
			dst.SetUint(uint64(n))
			return nil
		case isUint(src.Kind()):
			n := src.Uint()
			if dst.OverflowUint(n) {
				return fmt.Errorf("%w: %d overflows %s", ErrUnsupportedValue, n, dst.Type())
			}
			dst.SetUint(n)
			return nil
		}
	}
	if dst.Kind() == reflect.String && src.Kind() == reflect.Slice && src.Type().Elem().Kind() == reflect.Uint8 {
		dst.SetString(string(src.Bytes()))
		return nil
	}
	return fmt.Errorf("%w: %T for %s", ErrUnsupportedValue, v, dst.Type())
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}
