package classfile

import "jvmlet/internal/vmerr"

// Instruction is the tagged union of decoded opcodes (spec §3, §4.5).
// Every variant below corresponds to one opcode family from spec §4.5;
// NoOp is the padding entry that keeps the decoded array indexed by byte
// offset (spec §4.4).
type Instruction interface {
	instr()
}

type base struct{}

func (base) instr() {}

// NoOp is a padding slot: (wire-size - 1) of these follow every decoded
// instruction, so branch targets (which are byte offsets in the class
// file) index directly into the decoded array.
type NoOp struct{ base }

type PushNull struct{ base } // aconst_null

// PushInt covers iconst_<n>, bipush, sipush.
type PushInt struct {
	base
	Value int32
}

// PushLong covers lconst_<n>.
type PushLong struct {
	base
	Value int64
}

// LoadConst is ldc (1-byte constant pool index).
type LoadConst struct {
	base
	Index uint16
}

// LoadConstWide is ldc2_w (2-byte constant pool index, for Long/Double).
type LoadConstWide struct {
	base
	Index uint16
}

// LocalKind distinguishes the slot-width of a local-variable access.
type LocalKind int

const (
	LocalInt LocalKind = iota
	LocalLong
	LocalRef
)

// LoadLocal covers iload[_n], lload[_n], aload[_n].
type LoadLocal struct {
	base
	Index uint16
	Kind  LocalKind
}

// StoreLocal covers istore[_n], lstore[_n], astore[_n].
type StoreLocal struct {
	base
	Index uint16
	Kind  LocalKind
}

// IncLocal is iinc.
type IncLocal struct {
	base
	Index  uint16
	Amount int32
}

// ArrayElemKind distinguishes iaload/iastore from aaload/aastore.
type ArrayElemKind int

const (
	ArrayElemInt ArrayElemKind = iota
	ArrayElemRef
)

type ArrayLoad struct {
	base
	Kind ArrayElemKind
}

type ArrayStore struct {
	base
	Kind ArrayElemKind
}

// NewArray is newarray (primitive element type).
type NewArray struct {
	base
	TypeTag byte
}

// ANewArray is anewarray (reference element type, by constant-pool class index).
type ANewArray struct {
	base
	ClassIndex uint16
}

// MultiANewArray is multianewarray.
type MultiANewArray struct {
	base
	ClassIndex uint16
	Dimensions byte
}

type Pop struct{ base }
type Dup struct{ base }

// BinOpKind names the arithmetic family: iadd/ladd, isub/lsub, etc.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpRem
)

// BinOp covers iadd/ladd, isub/lsub, imul/lmul, idiv/ldiv, irem/lrem.
type BinOp struct {
	base
	Op   BinOpKind
	Long bool
}

// LCmp is lcmp.
type LCmp struct{ base }

// CmpOp names a comparison predicate used by both unary (against-zero)
// and binary int branches.
type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLt
	CmpGe
	CmpGt
	CmpLe
)

// IfZero covers ifeq/ifne/iflt/ifge/ifgt/ifle.
type IfZero struct {
	base
	Cond   CmpOp
	Target int
}

// IfICmp covers if_icmpeq/ne/lt/ge/gt/le.
type IfICmp struct {
	base
	Cond   CmpOp
	Target int
}

// Goto is goto.
type Goto struct {
	base
	Target int
}

// LookupPair is one (key, target) entry of a lookupswitch.
type LookupPair struct {
	Key    int32
	Target int
}

// LookupSwitch is lookupswitch.
type LookupSwitch struct {
	base
	Pairs   []LookupPair
	Default int
}

// ReturnKind distinguishes ireturn/areturn/return.
type ReturnKind int

const (
	ReturnInt ReturnKind = iota
	ReturnRef
	ReturnVoid
)

type Return struct {
	base
	Kind ReturnKind
}

type GetStatic struct {
	base
	Index uint16
}
type PutStatic struct {
	base
	Index uint16
}
type GetField struct {
	base
	Index uint16
}
type PutField struct {
	base
	Index uint16
}

type InvokeVirtual struct {
	base
	Index uint16
}
type InvokeSpecial struct {
	base
	Index uint16
}
type InvokeStatic struct {
	base
	Index uint16
}

type New struct {
	base
	Index uint16
}

// decodeAt decodes one instruction from code starting at byte offset pos.
// It returns the instruction, the number of bytes its wire encoding
// consumes (including the opcode byte itself), and any DecodeError.
//
// Branch opcodes compute their absolute target per spec §4.5: target =
// (operand + pos - 1) & 0xFFFF (see branchTarget), as an index into the
// padded instruction array (which is addressed by byte offset, so no
// separate byte→index translation is needed).
func decodeAt(code []byte, pos int) (Instruction, int, error) {
	op := code[pos]

	u8 := func(off int) (byte, error) {
		if pos+off >= len(code) {
			return 0, vmerr.Decode("decode", "opcode 0x%02X at %d: truncated operand", op, pos)
		}
		return code[pos+off], nil
	}
	i16 := func(off int) (int16, error) {
		if pos+off+1 >= len(code) {
			return 0, vmerr.Decode("decode", "opcode 0x%02X at %d: truncated 2-byte operand", op, pos)
		}
		return int16(uint16(code[pos+off])<<8 | uint16(code[pos+off+1])), nil
	}
	u16 := func(off int) (uint16, error) {
		v, err := i16(off)
		return uint16(v), err
	}
	i32 := func(off int) (int32, error) {
		if pos+off+3 >= len(code) {
			return 0, vmerr.Decode("decode", "opcode 0x%02X at %d: truncated 4-byte operand", op, pos)
		}
		return int32(uint32(code[pos+off])<<24 | uint32(code[pos+off+1])<<16 | uint32(code[pos+off+2])<<8 | uint32(code[pos+off+3])), nil
	}

	switch op {
	case OpAconstNull:
		return PushNull{}, 1, nil
	case OpIconstM1:
		return PushInt{Value: -1}, 1, nil
	case OpIconst0, OpIconst1, OpIconst2, OpIconst3, OpIconst4, OpIconst5:
		return PushInt{Value: int32(op - OpIconst0)}, 1, nil
	case OpLconst0, OpLconst1:
		return PushLong{Value: int64(op - OpLconst0)}, 1, nil

	case OpBipush:
		v, err := u8(1)
		if err != nil {
			return nil, 0, err
		}
		return PushInt{Value: int32(int8(v))}, 2, nil
	case OpSipush:
		v, err := i16(1)
		if err != nil {
			return nil, 0, err
		}
		return PushInt{Value: int32(v)}, 3, nil

	case OpLdc:
		v, err := u8(1)
		if err != nil {
			return nil, 0, err
		}
		return LoadConst{Index: uint16(v)}, 2, nil
	case OpLdc2W:
		v, err := u16(1)
		if err != nil {
			return nil, 0, err
		}
		return LoadConstWide{Index: v}, 3, nil

	case OpIload, OpLload, OpAload:
		v, err := u8(1)
		if err != nil {
			return nil, 0, err
		}
		return LoadLocal{Index: uint16(v), Kind: localKindFor(op)}, 2, nil
	case OpIload0, OpIload1, OpIload2, OpIload3:
		return LoadLocal{Index: uint16(op - OpIload0), Kind: LocalInt}, 1, nil
	case OpLload0, OpLload1, OpLload2, OpLload3:
		return LoadLocal{Index: uint16(op - OpLload0), Kind: LocalLong}, 1, nil
	case OpAload0, OpAload1, OpAload2, OpAload3:
		return LoadLocal{Index: uint16(op - OpAload0), Kind: LocalRef}, 1, nil

	case OpIstore, OpLstore, OpAstore:
		v, err := u8(1)
		if err != nil {
			return nil, 0, err
		}
		return StoreLocal{Index: uint16(v), Kind: localKindFor(op)}, 2, nil
	case OpIstore0, OpIstore1, OpIstore2, OpIstore3:
		return StoreLocal{Index: uint16(op - OpIstore0), Kind: LocalInt}, 1, nil
	case OpLstore0, OpLstore1, OpLstore2, OpLstore3:
		return StoreLocal{Index: uint16(op - OpLstore0), Kind: LocalLong}, 1, nil
	case OpAstore0, OpAstore1, OpAstore2, OpAstore3:
		return StoreLocal{Index: uint16(op - OpAstore0), Kind: LocalRef}, 1, nil

	case OpIaload:
		return ArrayLoad{Kind: ArrayElemInt}, 1, nil
	case OpAaload:
		return ArrayLoad{Kind: ArrayElemRef}, 1, nil
	case OpIastore:
		return ArrayStore{Kind: ArrayElemInt}, 1, nil
	case OpAastore:
		return ArrayStore{Kind: ArrayElemRef}, 1, nil

	case OpNewarray:
		v, err := u8(1)
		if err != nil {
			return nil, 0, err
		}
		return NewArray{TypeTag: v}, 2, nil
	case OpAnewarray:
		v, err := u16(1)
		if err != nil {
			return nil, 0, err
		}
		return ANewArray{ClassIndex: v}, 3, nil
	case OpMultianewarray:
		v, err := u16(1)
		if err != nil {
			return nil, 0, err
		}
		dims, err := u8(3)
		if err != nil {
			return nil, 0, err
		}
		return MultiANewArray{ClassIndex: v, Dimensions: dims}, 4, nil

	case OpPop:
		return Pop{}, 1, nil
	case OpDup:
		return Dup{}, 1, nil

	case OpIadd:
		return BinOp{Op: OpAdd}, 1, nil
	case OpLadd:
		return BinOp{Op: OpAdd, Long: true}, 1, nil
	case OpIsub:
		return BinOp{Op: OpSub}, 1, nil
	case OpLsub:
		return BinOp{Op: OpSub, Long: true}, 1, nil
	case OpImul:
		return BinOp{Op: OpMul}, 1, nil
	case OpLmul:
		return BinOp{Op: OpMul, Long: true}, 1, nil
	case OpIdiv:
		return BinOp{Op: OpDiv}, 1, nil
	case OpLdiv:
		return BinOp{Op: OpDiv, Long: true}, 1, nil
	case OpIrem:
		return BinOp{Op: OpRem}, 1, nil
	case OpLrem:
		return BinOp{Op: OpRem, Long: true}, 1, nil

	case OpIinc:
		idx, err := u8(1)
		if err != nil {
			return nil, 0, err
		}
		amt, err := u8(2)
		if err != nil {
			return nil, 0, err
		}
		return IncLocal{Index: uint16(idx), Amount: int32(int8(amt))}, 3, nil

	case OpLcmp:
		return LCmp{}, 1, nil

	case OpIfeq, OpIfne, OpIflt, OpIfge, OpIfgt, OpIfle:
		off, err := i16(1)
		if err != nil {
			return nil, 0, err
		}
		target := branchTarget(pos, off)
		return IfZero{Cond: cmpFor(op, OpIfeq), Target: target}, 3, nil

	case OpIfIcmpeq, OpIfIcmpne, OpIfIcmplt, OpIfIcmpge, OpIfIcmpgt, OpIfIcmple:
		off, err := i16(1)
		if err != nil {
			return nil, 0, err
		}
		target := branchTarget(pos, off)
		return IfICmp{Cond: cmpFor(op, OpIfIcmpeq), Target: target}, 3, nil

	case OpGoto:
		off, err := i16(1)
		if err != nil {
			return nil, 0, err
		}
		target := branchTarget(pos, off)
		return Goto{Target: target}, 3, nil

	case OpLookupswitch:
		return decodeLookupswitch(code, pos, i32)

	case OpIreturn:
		return Return{Kind: ReturnInt}, 1, nil
	case OpAreturn:
		return Return{Kind: ReturnRef}, 1, nil
	case OpReturn:
		return Return{Kind: ReturnVoid}, 1, nil

	case OpGetstatic:
		v, err := u16(1)
		if err != nil {
			return nil, 0, err
		}
		return GetStatic{Index: v}, 3, nil
	case OpPutstatic:
		v, err := u16(1)
		if err != nil {
			return nil, 0, err
		}
		return PutStatic{Index: v}, 3, nil
	case OpGetfield:
		v, err := u16(1)
		if err != nil {
			return nil, 0, err
		}
		return GetField{Index: v}, 3, nil
	case OpPutfield:
		v, err := u16(1)
		if err != nil {
			return nil, 0, err
		}
		return PutField{Index: v}, 3, nil

	case OpInvokevirtual:
		v, err := u16(1)
		if err != nil {
			return nil, 0, err
		}
		return InvokeVirtual{Index: v}, 3, nil
	case OpInvokespecial:
		v, err := u16(1)
		if err != nil {
			return nil, 0, err
		}
		return InvokeSpecial{Index: v}, 3, nil
	case OpInvokestatic:
		v, err := u16(1)
		if err != nil {
			return nil, 0, err
		}
		return InvokeStatic{Index: v}, 3, nil

	case OpNew:
		v, err := u16(1)
		if err != nil {
			return nil, 0, err
		}
		return New{Index: v}, 3, nil

	default:
		return nil, 0, vmerr.Decode("decode", "unknown opcode 0x%02X at position %d", op, pos)
	}
}

func localKindFor(op Opcode) LocalKind {
	switch op {
	case OpLload, OpLstore:
		return LocalLong
	case OpAload, OpAstore:
		return LocalRef
	default:
		return LocalInt
	}
}

func cmpFor(op, base Opcode) CmpOp {
	return CmpOp(op - base)
}

// branchTarget computes a branch opcode's absolute instruction-array
// target per spec §4.5: (operand + current_position - 1) & 0xFFFF,
// matching original_source's create_and_push exactly. This is one off
// from the textbook "target = opcode address + offset" formula; see
// DESIGN.md's Open Question decisions for why the spec's literal
// formula is the one this decoder follows.
func branchTarget(pos int, off int16) int {
	return (pos + int(off) - 1) & 0xFFFF
}

func decodeLookupswitch(code []byte, pos int, i32 func(int) (int32, error)) (Instruction, int, error) {
	// Padding brings the following bytes to a 4-byte boundary measured
	// from the start of the method's code array (the opcode itself sits
	// at pos; the first operand byte is at pos+1).
	padded := pos + 1
	for padded%4 != 0 {
		padded++
	}
	pad := padded - (pos + 1)

	readAt := func(byteOff int) (int32, error) { return i32(byteOff - pos) }

	def, err := readAt(padded)
	if err != nil {
		return nil, 0, err
	}
	npairsRaw, err := readAt(padded + 4)
	if err != nil {
		return nil, 0, err
	}
	npairs := int(npairsRaw)
	if npairs < 0 {
		return nil, 0, vmerr.Decode("decode", "lookupswitch at %d: negative npairs %d", pos, npairs)
	}

	pairs := make([]LookupPair, npairs)
	cursor := padded + 8
	for i := 0; i < npairs; i++ {
		key, err := readAt(cursor)
		if err != nil {
			return nil, 0, err
		}
		off, err := readAt(cursor + 4)
		if err != nil {
			return nil, 0, err
		}
		pairs[i] = LookupPair{Key: key, Target: (pos + int(off) - 1) & 0xFFFF}
		cursor += 8
	}

	width := 1 + pad + 8 + npairs*8
	return LookupSwitch{Pairs: pairs, Default: (pos + int(def) - 1) & 0xFFFF}, width, nil
}
