package classfile

import (
	"encoding/binary"
	"io"
	"math"

	"jvmlet/internal/stringpool"
	"jvmlet/internal/vmerr"
)

// Constant pool tags, per the JVM class-file format (spec §6).
const (
	TagClass              = 7
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagString             = 8
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagNameAndType        = 12
	TagUtf8               = 1
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
)

// Entry is the tagged union of constant pool variants (spec §3). Every
// concrete type below implements it; index 0 of a Pool is always a
// Null value, the synthetic sentinel spec §3 calls for.
type Entry interface {
	Tag() uint8
}

type Null struct{}

func (Null) Tag() uint8 { return 0 }

// reservedHole occupies the second slot of a Long/Double entry, so that
// constant pool indices keep their JVM-spec correspondence (§4.3).
type reservedHole struct{}

func (reservedHole) Tag() uint8 { return 0 }

type Class struct{ NameIndex uint16 }

func (Class) Tag() uint8 { return TagClass }

type Fieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (Fieldref) Tag() uint8 { return TagFieldref }

type Methodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (Methodref) Tag() uint8 { return TagMethodref }

type InterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (InterfaceMethodref) Tag() uint8 { return TagInterfaceMethodref }

type String struct{ Utf8Index uint16 }

func (String) Tag() uint8 { return TagString }

type NameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (NameAndType) Tag() uint8 { return TagNameAndType }

// Utf8 stores only the interned string id; the body was interned into
// the string pool at parse time (spec §3 "Utf8 bodies are interned...").
type Utf8 struct{ StringID int }

func (Utf8) Tag() uint8 { return TagUtf8 }

type Integer struct{ Value int32 }

func (Integer) Tag() uint8 { return TagInteger }

type Float struct{ Value float32 }

func (Float) Tag() uint8 { return TagFloat }

type Long struct{ Value int64 }

func (Long) Tag() uint8 { return TagLong }

type Double struct{ Value float64 }

func (Double) Tag() uint8 { return TagDouble }

// opaque covers MethodHandle/MethodType/Dynamic/InvokeDynamic: recognized
// by tag, consumed from the wire at their fixed size, but never resolved
// — outside the §4.5 opcode subset. The role-specific accessors and
// ldc reject one with a StateError, like any other wrong-variant entry.
type opaque struct{ tag uint8 }

func (o opaque) Tag() uint8 { return o.tag }

// Pool is the parsed constant pool: a 1-indexed, densely addressed
// sequence where Long/Double occupy two slots (spec §3, §4.3).
type Pool []Entry

// ParseConstantPool reads constantPoolCount-1 entries from r, interning
// every Utf8 body into strings. Index 0 is the Null sentinel.
func ParseConstantPool(r io.Reader, constantPoolCount uint16, strings *stringpool.Pool) (Pool, error) {
	pool := make(Pool, constantPoolCount)
	pool[0] = Null{}

	for i := uint16(1); i < constantPoolCount; i++ {
		var tag uint8
		if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
			return nil, vmerr.Decode("constant pool", "reading tag at index %d: %v", i, err)
		}

		switch tag {
		case TagUtf8:
			var length uint16
			if err := binary.Read(r, binary.BigEndian, &length); err != nil {
				return nil, vmerr.Decode("constant pool", "reading Utf8 length at index %d: %v", i, err)
			}
			raw := make([]byte, length)
			if _, err := io.ReadFull(r, raw); err != nil {
				return nil, vmerr.Decode("constant pool", "reading Utf8 bytes at index %d: %v", i, err)
			}
			pool[i] = Utf8{StringID: strings.Intern(string(raw))}

		case TagInteger:
			var v int32
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return nil, vmerr.Decode("constant pool", "reading Integer at index %d: %v", i, err)
			}
			pool[i] = Integer{Value: v}

		case TagFloat:
			var bits uint32
			if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
				return nil, vmerr.Decode("constant pool", "reading Float at index %d: %v", i, err)
			}
			pool[i] = Float{Value: math.Float32frombits(bits)}

		case TagLong:
			var v int64
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return nil, vmerr.Decode("constant pool", "reading Long at index %d: %v", i, err)
			}
			pool[i] = Long{Value: v}
			i++
			if i < constantPoolCount {
				pool[i] = reservedHole{}
			}

		case TagDouble:
			var bits uint64
			if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
				return nil, vmerr.Decode("constant pool", "reading Double at index %d: %v", i, err)
			}
			pool[i] = Double{Value: math.Float64frombits(bits)}
			i++
			if i < constantPoolCount {
				pool[i] = reservedHole{}
			}

		case TagClass:
			var nameIndex uint16
			if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
				return nil, vmerr.Decode("constant pool", "reading Class at index %d: %v", i, err)
			}
			pool[i] = Class{NameIndex: nameIndex}

		case TagString:
			var utf8Index uint16
			if err := binary.Read(r, binary.BigEndian, &utf8Index); err != nil {
				return nil, vmerr.Decode("constant pool", "reading String at index %d: %v", i, err)
			}
			pool[i] = String{Utf8Index: utf8Index}

		case TagFieldref:
			fr, err := readRef(r, i, "Fieldref")
			if err != nil {
				return nil, err
			}
			pool[i] = Fieldref(fr)

		case TagMethodref:
			fr, err := readRef(r, i, "Methodref")
			if err != nil {
				return nil, err
			}
			pool[i] = Methodref(fr)

		case TagInterfaceMethodref:
			fr, err := readRef(r, i, "InterfaceMethodref")
			if err != nil {
				return nil, err
			}
			pool[i] = InterfaceMethodref(fr)

		case TagNameAndType:
			var nameIndex, descIndex uint16
			if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
				return nil, vmerr.Decode("constant pool", "reading NameAndType name_index at index %d: %v", i, err)
			}
			if err := binary.Read(r, binary.BigEndian, &descIndex); err != nil {
				return nil, vmerr.Decode("constant pool", "reading NameAndType descriptor_index at index %d: %v", i, err)
			}
			pool[i] = NameAndType{NameIndex: nameIndex, DescriptorIndex: descIndex}

		case TagMethodHandle:
			if _, err := io.CopyN(io.Discard, r, 3); err != nil {
				return nil, vmerr.Decode("constant pool", "reading MethodHandle at index %d: %v", i, err)
			}
			pool[i] = opaque{tag: tag}

		case TagMethodType:
			if _, err := io.CopyN(io.Discard, r, 2); err != nil {
				return nil, vmerr.Decode("constant pool", "reading MethodType at index %d: %v", i, err)
			}
			pool[i] = opaque{tag: tag}

		case TagDynamic, TagInvokeDynamic:
			if _, err := io.CopyN(io.Discard, r, 4); err != nil {
				return nil, vmerr.Decode("constant pool", "reading Dynamic/InvokeDynamic at index %d: %v", i, err)
			}
			pool[i] = opaque{tag: tag}

		default:
			return nil, vmerr.Decode("constant pool", "unknown tag %d at index %d", tag, i)
		}
	}

	return pool, nil
}

type ref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func readRef(r io.Reader, i uint16, label string) (ref, error) {
	var classIndex, natIndex uint16
	if err := binary.Read(r, binary.BigEndian, &classIndex); err != nil {
		return ref{}, vmerr.Decode("constant pool", "reading %s class_index at index %d: %v", label, i, err)
	}
	if err := binary.Read(r, binary.BigEndian, &natIndex); err != nil {
		return ref{}, vmerr.Decode("constant pool", "reading %s name_and_type_index at index %d: %v", label, i, err)
	}
	return ref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
}

// --- Accessors (§4.3). Each fails with an InternalError-flavored
// vmerr.State if the indexed entry is not of the expected variant —
// a caller bug, per spec, not malformed input. ---

// At returns the raw constant pool entry at index, for callers (such as
// ldc/ldc2_w) that need to dispatch on its concrete variant themselves.
func (p Pool) At(index uint16) (Entry, error) {
	return p.entry(index, "At")
}

func (p Pool) entry(index uint16, context string) (Entry, error) {
	if int(index) >= len(p) || p[index] == nil {
		return nil, vmerr.State(context, "invalid constant pool index %d", index)
	}
	return p[index], nil
}

// Utf8At returns the interned string id stored at index.
func (p Pool) Utf8At(index uint16) (int, error) {
	e, err := p.entry(index, "Utf8At")
	if err != nil {
		return 0, err
	}
	u, ok := e.(Utf8)
	if !ok {
		return 0, vmerr.State("Utf8At", "constant pool index %d is not Utf8 (tag=%d)", index, e.Tag())
	}
	return u.StringID, nil
}

// ClassNameAt resolves the Utf8 name id referenced by a Class entry.
func (p Pool) ClassNameAt(classIndex uint16) (int, error) {
	e, err := p.entry(classIndex, "ClassNameAt")
	if err != nil {
		return 0, err
	}
	c, ok := e.(Class)
	if !ok {
		return 0, vmerr.State("ClassNameAt", "constant pool index %d is not Class", classIndex)
	}
	return p.Utf8At(c.NameIndex)
}

// StringAt resolves the Utf8 string id referenced by a String entry.
func (p Pool) StringAt(index uint16) (int, error) {
	e, err := p.entry(index, "StringAt")
	if err != nil {
		return 0, err
	}
	s, ok := e.(String)
	if !ok {
		return 0, vmerr.State("StringAt", "constant pool index %d is not String", index)
	}
	return p.Utf8At(s.Utf8Index)
}

// NameAndTypeAt resolves a NameAndType entry into its two interned ids.
func (p Pool) NameAndTypeAt(index uint16) (nameID, descID int, err error) {
	e, err := p.entry(index, "NameAndTypeAt")
	if err != nil {
		return 0, 0, err
	}
	nat, ok := e.(NameAndType)
	if !ok {
		return 0, 0, vmerr.State("NameAndTypeAt", "constant pool index %d is not NameAndType", index)
	}
	nameID, err = p.Utf8At(nat.NameIndex)
	if err != nil {
		return 0, 0, err
	}
	descID, err = p.Utf8At(nat.DescriptorIndex)
	if err != nil {
		return 0, 0, err
	}
	return nameID, descID, nil
}

// MemberRef is the resolved (class, name, descriptor) triple shared by
// Fieldref/Methodref/InterfaceMethodref lookups.
type MemberRef struct {
	ClassNameID  int
	MemberNameID int
	DescriptorID int
}

func (p Pool) resolveMemberRef(classIndex, natIndex uint16) (MemberRef, error) {
	classNameID, err := p.ClassNameAt(classIndex)
	if err != nil {
		return MemberRef{}, err
	}
	nameID, descID, err := p.NameAndTypeAt(natIndex)
	if err != nil {
		return MemberRef{}, err
	}
	return MemberRef{ClassNameID: classNameID, MemberNameID: nameID, DescriptorID: descID}, nil
}

// FieldRefAt resolves a Fieldref entry.
func (p Pool) FieldRefAt(index uint16) (MemberRef, error) {
	e, err := p.entry(index, "FieldRefAt")
	if err != nil {
		return MemberRef{}, err
	}
	fr, ok := e.(Fieldref)
	if !ok {
		return MemberRef{}, vmerr.State("FieldRefAt", "constant pool index %d is not Fieldref", index)
	}
	return p.resolveMemberRef(fr.ClassIndex, fr.NameAndTypeIndex)
}

// MethodRefAt resolves a Methodref entry.
func (p Pool) MethodRefAt(index uint16) (MemberRef, error) {
	e, err := p.entry(index, "MethodRefAt")
	if err != nil {
		return MemberRef{}, err
	}
	mr, ok := e.(Methodref)
	if !ok {
		return MemberRef{}, vmerr.State("MethodRefAt", "constant pool index %d is not Methodref", index)
	}
	return p.resolveMemberRef(mr.ClassIndex, mr.NameAndTypeIndex)
}

// ClassAndFieldNameAt returns (class_name_id, field_name_id) for a
// Fieldref entry, per spec §4.3's get_class_and_field_name accessor.
func (p Pool) ClassAndFieldNameAt(index uint16) (classNameID, fieldNameID int, err error) {
	mr, err := p.FieldRefAt(index)
	if err != nil {
		return 0, 0, err
	}
	return mr.ClassNameID, mr.MemberNameID, nil
}
