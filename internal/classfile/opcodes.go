package classfile

// Opcode is a raw bytecode opcode value, per the JVM spec. Only the
// subset enumerated in spec §4.5 is recognized; anything else is a
// DecodeError(UnknownOpcode).
type Opcode = byte

const (
	OpAconstNull Opcode = 0x01

	OpIconstM1 Opcode = 0x02
	OpIconst0  Opcode = 0x03
	OpIconst1  Opcode = 0x04
	OpIconst2  Opcode = 0x05
	OpIconst3  Opcode = 0x06
	OpIconst4  Opcode = 0x07
	OpIconst5  Opcode = 0x08

	OpLconst0 Opcode = 0x09
	OpLconst1 Opcode = 0x0A

	OpBipush Opcode = 0x10
	OpSipush Opcode = 0x11
	OpLdc    Opcode = 0x12
	OpLdc2W  Opcode = 0x14

	OpIload  Opcode = 0x15
	OpLload  Opcode = 0x16
	OpAload  Opcode = 0x19
	OpIload0 Opcode = 0x1A
	OpIload1 Opcode = 0x1B
	OpIload2 Opcode = 0x1C
	OpIload3 Opcode = 0x1D
	OpLload0 Opcode = 0x1E
	OpLload1 Opcode = 0x1F
	OpLload2 Opcode = 0x20
	OpLload3 Opcode = 0x21
	OpAload0 Opcode = 0x2A
	OpAload1 Opcode = 0x2B
	OpAload2 Opcode = 0x2C
	OpAload3 Opcode = 0x2D

	OpIaload Opcode = 0x2E
	OpAaload Opcode = 0x32

	OpIstore  Opcode = 0x36
	OpLstore  Opcode = 0x37
	OpAstore  Opcode = 0x3A
	OpIstore0 Opcode = 0x3B
	OpIstore1 Opcode = 0x3C
	OpIstore2 Opcode = 0x3D
	OpIstore3 Opcode = 0x3E
	OpLstore0 Opcode = 0x3F
	OpLstore1 Opcode = 0x40
	OpLstore2 Opcode = 0x41
	OpLstore3 Opcode = 0x42
	OpAstore0 Opcode = 0x4B
	OpAstore1 Opcode = 0x4C
	OpAstore2 Opcode = 0x4D
	OpAstore3 Opcode = 0x4E

	OpIastore Opcode = 0x4F
	OpAastore Opcode = 0x53

	OpPop Opcode = 0x57
	OpDup Opcode = 0x59

	OpIadd Opcode = 0x60
	OpLadd Opcode = 0x61
	OpIsub Opcode = 0x64
	OpLsub Opcode = 0x65
	OpImul Opcode = 0x68
	OpLmul Opcode = 0x69
	OpIdiv Opcode = 0x6C
	OpLdiv Opcode = 0x6D
	OpIrem Opcode = 0x70
	OpLrem Opcode = 0x71

	OpIinc Opcode = 0x84

	OpLcmp Opcode = 0x94

	OpIfeq Opcode = 0x99
	OpIfne Opcode = 0x9A
	OpIflt Opcode = 0x9B
	OpIfge Opcode = 0x9C
	OpIfgt Opcode = 0x9D
	OpIfle Opcode = 0x9E

	OpIfIcmpeq Opcode = 0x9F
	OpIfIcmpne Opcode = 0xA0
	OpIfIcmplt Opcode = 0xA1
	OpIfIcmpge Opcode = 0xA2
	OpIfIcmpgt Opcode = 0xA3
	OpIfIcmple Opcode = 0xA4

	OpGoto         Opcode = 0xA7
	OpLookupswitch Opcode = 0xAB

	OpIreturn Opcode = 0xAC
	OpAreturn Opcode = 0xB0
	OpReturn  Opcode = 0xB1

	OpGetstatic Opcode = 0xB2
	OpPutstatic Opcode = 0xB3
	OpGetfield  Opcode = 0xB4
	OpPutfield  Opcode = 0xB5

	OpInvokevirtual Opcode = 0xB6
	OpInvokespecial Opcode = 0xB7
	OpInvokestatic  Opcode = 0xB8

	OpNew            Opcode = 0xBB
	OpNewarray       Opcode = 0xBC
	OpAnewarray      Opcode = 0xBD
	OpMultianewarray Opcode = 0xC5
)

// Primitive array type tags used by newarray (JVM spec Table 6.5.newarray-A).
const (
	ArrayTypeBoolean = 4
	ArrayTypeChar    = 5
	ArrayTypeFloat   = 6
	ArrayTypeDouble  = 7
	ArrayTypeByte    = 8
	ArrayTypeShort   = 9
	ArrayTypeInt     = 10
	ArrayTypeLong    = 11
)
