package vm

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"jvmlet/internal/classfile"
	"jvmlet/internal/stringpool"
)

// classBuilder assembles class-file byte streams by hand for tests,
// mirroring internal/classfile's own test builder (there is no javac in
// this environment to compile real fixtures from source).
type classBuilder struct {
	buf     bytes.Buffer
	entries [][]byte
}

func newClassBuilder() *classBuilder { return &classBuilder{} }

func (b *classBuilder) addUtf8(s string) uint16 {
	var e bytes.Buffer
	e.WriteByte(classfile.TagUtf8)
	binary.Write(&e, binary.BigEndian, uint16(len(s)))
	e.WriteString(s)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

func (b *classBuilder) addClass(nameIndex uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(classfile.TagClass)
	binary.Write(&e, binary.BigEndian, nameIndex)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

func (b *classBuilder) addNameAndType(nameIndex, descIndex uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(classfile.TagNameAndType)
	binary.Write(&e, binary.BigEndian, nameIndex)
	binary.Write(&e, binary.BigEndian, descIndex)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

func (b *classBuilder) addString(utf8Index uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(classfile.TagString)
	binary.Write(&e, binary.BigEndian, utf8Index)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

func (b *classBuilder) addInteger(v int32) uint16 {
	var e bytes.Buffer
	e.WriteByte(classfile.TagInteger)
	binary.Write(&e, binary.BigEndian, v)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

func (b *classBuilder) addLong(v int64) uint16 {
	var e bytes.Buffer
	e.WriteByte(classfile.TagLong)
	binary.Write(&e, binary.BigEndian, v)
	b.entries = append(b.entries, e.Bytes())
	idx := uint16(len(b.entries))
	b.entries = append(b.entries, nil) // reserved second slot
	return idx
}

func (b *classBuilder) addFieldref(classIndex, natIndex uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(classfile.TagFieldref)
	binary.Write(&e, binary.BigEndian, classIndex)
	binary.Write(&e, binary.BigEndian, natIndex)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

func (b *classBuilder) addMethodref(classIndex, natIndex uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(classfile.TagMethodref)
	binary.Write(&e, binary.BigEndian, classIndex)
	binary.Write(&e, binary.BigEndian, natIndex)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

// build writes the full class file: header, constant pool, access
// flags / this / super, zero interfaces, the given field and method
// tables (already-encoded bodies), and zero class attributes.
func (b *classBuilder) build(thisClass, superClass uint16, fields, methods []byte) []byte {
	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(61))

	binary.Write(&out, binary.BigEndian, uint16(len(b.entries)+1))
	for _, e := range b.entries {
		if e == nil { // reserved Long/Double slot: no bytes on the wire
			continue
		}
		out.Write(e)
	}

	binary.Write(&out, binary.BigEndian, classfile.AccPublic|classfile.AccSuper)
	binary.Write(&out, binary.BigEndian, thisClass)
	binary.Write(&out, binary.BigEndian, superClass)
	binary.Write(&out, binary.BigEndian, uint16(0))

	out.Write(fields)
	out.Write(methods)

	binary.Write(&out, binary.BigEndian, uint16(0))
	return out.Bytes()
}

// encodeMethod serializes one method_info with a single Code attribute
// wrapping the given bytecode.
func encodeMethod(codeNameIndex uint16, accessFlags, nameIndex, descIndex uint16, maxStack, maxLocals uint16, bytecode []byte) []byte {
	var code bytes.Buffer
	binary.Write(&code, binary.BigEndian, maxStack)
	binary.Write(&code, binary.BigEndian, maxLocals)
	binary.Write(&code, binary.BigEndian, uint32(len(bytecode)))
	code.Write(bytecode)
	binary.Write(&code, binary.BigEndian, uint16(0))
	binary.Write(&code, binary.BigEndian, uint16(0))

	var m bytes.Buffer
	binary.Write(&m, binary.BigEndian, accessFlags)
	binary.Write(&m, binary.BigEndian, nameIndex)
	binary.Write(&m, binary.BigEndian, descIndex)
	binary.Write(&m, binary.BigEndian, uint16(1))
	binary.Write(&m, binary.BigEndian, codeNameIndex)
	binary.Write(&m, binary.BigEndian, uint32(code.Len()))
	m.Write(code.Bytes())
	return m.Bytes()
}

func encodeMethodsTable(methods ...[]byte) []byte {
	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint16(len(methods)))
	for _, m := range methods {
		out.Write(m)
	}
	return out.Bytes()
}

func encodeField(accessFlags, nameIndex, descIndex uint16) []byte {
	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, accessFlags)
	binary.Write(&out, binary.BigEndian, nameIndex)
	binary.Write(&out, binary.BigEndian, descIndex)
	binary.Write(&out, binary.BigEndian, uint16(0))
	return out.Bytes()
}

func encodeFieldsTable(fields ...[]byte) []byte {
	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint16(len(fields)))
	for _, f := range fields {
		out.Write(f)
	}
	return out.Bytes()
}

func emptyFieldsTable() []byte { return encodeFieldsTable() }

// writeClassFile writes raw class-file bytes to "<dir>/<name>.class",
// the layout RunEntry/LoadClass resolve classes from.
func writeClassFile(t *testing.T, dir, name string, raw []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".class"), raw, 0o644); err != nil {
		t.Fatalf("writing %s.class: %v", name, err)
	}
}

// newTestContext builds a Context rooted at dir with output captured
// into a buffer, for RunEntry-driven integration tests.
func newTestContext(dir string) (*Context, *bytes.Buffer) {
	var out bytes.Buffer
	strings := stringpool.New()
	return NewContext(dir, strings, &out, 0, nil), &out
}
