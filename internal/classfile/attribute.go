package classfile

import (
	"encoding/binary"
	"io"

	"jvmlet/internal/stringpool"
	"jvmlet/internal/vmerr"
)

const attrNameCode = "Code"

// parseAttributes consumes count attribute_info structures from r. The
// only attribute the interpreter acts on is Code (spec §4.4); everything
// else — SourceFile, LineNumberTable, StackMapTable, and any attribute
// kind the file format may carry — is read structurally and discarded,
// per spec §4.4's note that unrecognized attributes are skipped rather
// than rejected. If one of the attributes is named "Code", its parsed
// body is returned; callers that don't expect one (class- and
// field-level attribute lists) simply ignore a nil result.
func parseAttributes(r io.Reader, count uint16, pool Pool, strings *stringpool.Pool) (*Code, error) {
	var code *Code
	for i := uint16(0); i < count; i++ {
		var nameIndex uint16
		if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
			return nil, vmerr.Decode("attribute", "reading attribute_name_index[%d]: %v", i, err)
		}
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return nil, vmerr.Decode("attribute", "reading attribute_length[%d]: %v", i, err)
		}

		nameID, err := pool.Utf8At(nameIndex)
		if err != nil {
			return nil, err
		}
		name, err := strings.Resolve(nameID)
		if err != nil {
			return nil, err
		}

		if name == attrNameCode {
			c, err := parseCode(r, pool, strings)
			if err != nil {
				return nil, err
			}
			code = c
			continue
		}

		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			return nil, vmerr.Decode("attribute", "skipping attribute %q: %v", name, err)
		}
	}
	return code, nil
}
