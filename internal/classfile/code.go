package classfile

import (
	"encoding/binary"
	"io"

	"jvmlet/internal/stringpool"
	"jvmlet/internal/vmerr"
)

// parseCode reads a Code attribute's body (spec §4.4): max_stack,
// max_locals, the raw bytecode (decoded into the byte-offset-indexed
// instruction array), the exception table, and any nested attributes
// (LineNumberTable, StackMapTable, ...), which are parsed structurally
// but not retained.
func parseCode(r io.Reader, pool Pool, strings *stringpool.Pool) (*Code, error) {
	var maxStack, maxLocals uint16
	if err := binary.Read(r, binary.BigEndian, &maxStack); err != nil {
		return nil, vmerr.Decode("Code attribute", "reading max_stack: %v", err)
	}
	if err := binary.Read(r, binary.BigEndian, &maxLocals); err != nil {
		return nil, vmerr.Decode("Code attribute", "reading max_locals: %v", err)
	}

	var codeLength uint32
	if err := binary.Read(r, binary.BigEndian, &codeLength); err != nil {
		return nil, vmerr.Decode("Code attribute", "reading code_length: %v", err)
	}
	raw := make([]byte, codeLength)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, vmerr.Decode("Code attribute", "reading code bytes: %v", err)
	}

	instructions, err := decodeInstructions(raw)
	if err != nil {
		return nil, err
	}

	var exceptionTableLength uint16
	if err := binary.Read(r, binary.BigEndian, &exceptionTableLength); err != nil {
		return nil, vmerr.Decode("Code attribute", "reading exception_table_length: %v", err)
	}
	handlers := make([]ExceptionHandler, exceptionTableLength)
	for i := range handlers {
		if err := binary.Read(r, binary.BigEndian, &handlers[i]); err != nil {
			return nil, vmerr.Decode("Code attribute", "reading exception_table[%d]: %v", i, err)
		}
	}

	var attrCount uint16
	if err := binary.Read(r, binary.BigEndian, &attrCount); err != nil {
		return nil, vmerr.Decode("Code attribute", "reading attributes_count: %v", err)
	}
	if _, err := parseAttributes(r, attrCount, pool, strings); err != nil {
		return nil, err
	}

	return &Code{
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		Instructions:   instructions,
		ExceptionTable: handlers,
	}, nil
}

// decodeInstructions walks raw bytecode once, decoding one Instruction
// per opcode and padding out its wire width with NoOp so that the
// result is indexed by byte offset (spec §4.4, §4.5).
func decodeInstructions(raw []byte) ([]Instruction, error) {
	out := make([]Instruction, len(raw))
	pos := 0
	for pos < len(raw) {
		instr, width, err := decodeAt(raw, pos)
		if err != nil {
			return nil, err
		}
		out[pos] = instr
		for i := 1; i < width; i++ {
			out[pos+i] = NoOp{}
		}
		pos += width
	}
	return out, nil
}
