// Package classfile decodes the JVM class-file format (spec §4) into an
// in-memory ClassFile: a resolved constant pool, field/method tables
// keyed by interned string ids, and bytecode already decoded into a
// byte-offset-indexed instruction array. Nothing under this package
// executes code; internal/vm consumes its output.
package classfile

import (
	"encoding/binary"
	"io"
	"os"

	"jvmlet/internal/stringpool"
	"jvmlet/internal/vmerr"
)

const classFileMagic = 0xCAFEBABE

// ParseFile reads and parses the class file at path.
func ParseFile(path string, strings *stringpool.Pool) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, vmerr.ResolutionWrap(err, "opening class file "+path)
	}
	defer f.Close()
	return Parse(f, strings)
}

// Parse reads a class file from r (spec §4.1).
func Parse(r io.Reader, strings *stringpool.Pool) (*ClassFile, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, vmerr.Decode("class file", "reading magic: %v", err)
	}
	if magic != classFileMagic {
		return nil, vmerr.Decode("class file", "bad magic 0x%08X", magic)
	}

	// minor_version, major_version: read and ignored. The interpreter
	// targets a single fixed bytecode dialect (spec §4.5) and does not
	// vary behavior by class file version.
	var minor, major uint16
	if err := binary.Read(r, binary.BigEndian, &minor); err != nil {
		return nil, vmerr.Decode("class file", "reading minor_version: %v", err)
	}
	if err := binary.Read(r, binary.BigEndian, &major); err != nil {
		return nil, vmerr.Decode("class file", "reading major_version: %v", err)
	}

	var constantPoolCount uint16
	if err := binary.Read(r, binary.BigEndian, &constantPoolCount); err != nil {
		return nil, vmerr.Decode("class file", "reading constant_pool_count: %v", err)
	}
	pool, err := ParseConstantPool(r, constantPoolCount, strings)
	if err != nil {
		return nil, err
	}

	var accessFlags, thisClass, superClass uint16
	if err := binary.Read(r, binary.BigEndian, &accessFlags); err != nil {
		return nil, vmerr.Decode("class file", "reading access_flags: %v", err)
	}
	if err := binary.Read(r, binary.BigEndian, &thisClass); err != nil {
		return nil, vmerr.Decode("class file", "reading this_class: %v", err)
	}
	if err := binary.Read(r, binary.BigEndian, &superClass); err != nil {
		return nil, vmerr.Decode("class file", "reading super_class: %v", err)
	}

	thisNameID, err := pool.ClassNameAt(thisClass)
	if err != nil {
		return nil, err
	}
	var superNameID int
	if superClass != 0 {
		superNameID, err = pool.ClassNameAt(superClass)
		if err != nil {
			return nil, err
		}
	}

	var interfacesCount uint16
	if err := binary.Read(r, binary.BigEndian, &interfacesCount); err != nil {
		return nil, vmerr.Decode("class file", "reading interfaces_count: %v", err)
	}
	interfaces := make([]int, interfacesCount)
	for i := range interfaces {
		var idx uint16
		if err := binary.Read(r, binary.BigEndian, &idx); err != nil {
			return nil, vmerr.Decode("class file", "reading interfaces[%d]: %v", i, err)
		}
		nameID, err := pool.ClassNameAt(idx)
		if err != nil {
			return nil, err
		}
		interfaces[i] = nameID
	}

	fields, err := parseFields(r, pool, strings)
	if err != nil {
		return nil, err
	}
	methods, err := parseMethods(r, pool, strings)
	if err != nil {
		return nil, err
	}

	var classAttrCount uint16
	if err := binary.Read(r, binary.BigEndian, &classAttrCount); err != nil {
		return nil, vmerr.Decode("class file", "reading class attributes_count: %v", err)
	}
	if _, err := parseAttributes(r, classAttrCount, pool, strings); err != nil {
		return nil, err
	}

	return &ClassFile{
		ConstantPool: pool,
		AccessFlags:  accessFlags,
		ThisNameID:   thisNameID,
		SuperNameID:  superNameID,
		Interfaces:   interfaces,
		Fields:       fields,
		Methods:      methods,
	}, nil
}

func parseFields(r io.Reader, pool Pool, strings *stringpool.Pool) ([]*FieldInfo, error) {
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, vmerr.Decode("class file", "reading fields_count: %v", err)
	}
	fields := make([]*FieldInfo, count)
	for i := range fields {
		accessFlags, nameID, descID, attrCount, err := readMemberHeader(r, pool, strings)
		if err != nil {
			return nil, err
		}
		if _, err := parseAttributes(r, attrCount, pool, strings); err != nil {
			return nil, err
		}
		fields[i] = &FieldInfo{AccessFlags: accessFlags, NameID: nameID, DescriptorID: descID}
	}
	return fields, nil
}

func parseMethods(r io.Reader, pool Pool, strings *stringpool.Pool) ([]*MethodInfo, error) {
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, vmerr.Decode("class file", "reading methods_count: %v", err)
	}
	methods := make([]*MethodInfo, count)
	for i := range methods {
		accessFlags, nameID, descID, attrCount, err := readMemberHeader(r, pool, strings)
		if err != nil {
			return nil, err
		}
		code, err := parseAttributes(r, attrCount, pool, strings)
		if err != nil {
			return nil, err
		}
		methods[i] = &MethodInfo{AccessFlags: accessFlags, NameID: nameID, DescriptorID: descID, Code: code}
	}
	return methods, nil
}

// readMemberHeader reads the shared field_info/method_info prefix:
// access_flags, name_index, descriptor_index, attributes_count.
func readMemberHeader(r io.Reader, pool Pool, strings *stringpool.Pool) (accessFlags uint16, nameID, descID int, attrCount uint16, err error) {
	if err = binary.Read(r, binary.BigEndian, &accessFlags); err != nil {
		return 0, 0, 0, 0, vmerr.Decode("class file", "reading member access_flags: %v", err)
	}
	var nameIndex, descIndex uint16
	if err = binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
		return 0, 0, 0, 0, vmerr.Decode("class file", "reading member name_index: %v", err)
	}
	if err = binary.Read(r, binary.BigEndian, &descIndex); err != nil {
		return 0, 0, 0, 0, vmerr.Decode("class file", "reading member descriptor_index: %v", err)
	}
	nameID, err = pool.Utf8At(nameIndex)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	descID, err = pool.Utf8At(descIndex)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if err = binary.Read(r, binary.BigEndian, &attrCount); err != nil {
		return 0, 0, 0, 0, vmerr.Decode("class file", "reading member attributes_count: %v", err)
	}
	return accessFlags, nameID, descID, attrCount, nil
}
