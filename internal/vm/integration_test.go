package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jvmlet/internal/classfile"
)

// TestHelloWorld exercises the full Entry procedure end to end (spec
// §4.8, §8 scenario 1): System.out.println("Hello, World!").
func TestHelloWorld(t *testing.T) {
	b := newClassBuilder()
	thisName := b.addUtf8("HelloWorld")
	thisClass := b.addClass(thisName)
	superName := b.addUtf8("java/lang/Object")
	superClass := b.addClass(superName)
	codeAttrName := b.addUtf8("Code")
	mainName := b.addUtf8("main")
	mainDesc := b.addUtf8("([Ljava/lang/String;)V")

	systemName := b.addUtf8("java/lang/System")
	systemClass := b.addClass(systemName)
	outName := b.addUtf8("out")
	outDesc := b.addUtf8("Ljava/io/PrintStream;")
	outNat := b.addNameAndType(outName, outDesc)
	outField := b.addFieldref(systemClass, outNat)

	helloUtf8 := b.addUtf8("Hello, World!")
	helloString := b.addString(helloUtf8)

	printStreamName := b.addUtf8("java/io/PrintStream")
	printStreamClass := b.addClass(printStreamName)
	printlnName := b.addUtf8("println")
	printlnDesc := b.addUtf8("(Ljava/lang/String;)V")
	printlnNat := b.addNameAndType(printlnName, printlnDesc)
	printlnMethod := b.addMethodref(printStreamClass, printlnNat)

	bytecode := []byte{
		classfile.OpGetstatic, byte(outField >> 8), byte(outField),
		classfile.OpLdc, byte(helloString),
		classfile.OpInvokevirtual, byte(printlnMethod >> 8), byte(printlnMethod),
		classfile.OpReturn,
	}
	methodBody := encodeMethod(codeAttrName, classfile.AccPublic|classfile.AccStatic, mainName, mainDesc, 2, 1, bytecode)
	raw := b.build(thisClass, superClass, emptyFieldsTable(), encodeMethodsTable(methodBody))

	dir := t.TempDir()
	writeClassFile(t, dir, "HelloWorld", raw)
	ctx, out := newTestContext(dir)

	require.NoError(t, ctx.RunEntry("HelloWorld"))
	require.Equal(t, "Hello, World!\n", out.String())
}

// TestFizzBuzz builds FizzBuzz 1..15 by hand (spec §8 scenario 2): a
// loop counter in local 1, irem against 15/3/5, if/else via ifne chains
// to three labeled blocks, and goto both to skip the other branches and
// to close the loop. This is the scenario that actually exercises every
// branch opcode (ifne, if_icmple, goto) at decode *and* dispatch time,
// and with it the "-1" branch-target formula recorded in DESIGN.md.
func TestFizzBuzz(t *testing.T) {
	b := newClassBuilder()
	thisName := b.addUtf8("FizzBuzz")
	thisClass := b.addClass(thisName)
	superName := b.addUtf8("java/lang/Object")
	superClass := b.addClass(superName)
	codeAttrName := b.addUtf8("Code")
	mainName := b.addUtf8("main")
	mainDesc := b.addUtf8("([Ljava/lang/String;)V")

	systemName := b.addUtf8("java/lang/System")
	systemClass := b.addClass(systemName)
	outName := b.addUtf8("out")
	outDesc := b.addUtf8("Ljava/io/PrintStream;")
	outNat := b.addNameAndType(outName, outDesc)
	outField := b.addFieldref(systemClass, outNat)

	printStreamName := b.addUtf8("java/io/PrintStream")
	printStreamClass := b.addClass(printStreamName)
	printlnName := b.addUtf8("println")
	printlnStringDesc := b.addUtf8("(Ljava/lang/String;)V")
	printlnStringNat := b.addNameAndType(printlnName, printlnStringDesc)
	printlnStringMethod := b.addMethodref(printStreamClass, printlnStringNat)
	printlnIntDesc := b.addUtf8("(I)V")
	printlnIntNat := b.addNameAndType(printlnName, printlnIntDesc)
	printlnIntMethod := b.addMethodref(printStreamClass, printlnIntNat)

	fizzbuzzUtf8 := b.addUtf8("FizzBuzz")
	fizzbuzzString := b.addString(fizzbuzzUtf8)
	fizzUtf8 := b.addUtf8("Fizz")
	fizzString := b.addString(fizzUtf8)
	buzzUtf8 := b.addUtf8("Buzz")
	buzzString := b.addString(buzzUtf8)

	// Byte offsets below are laid out by hand so branch operands can be
	// computed against the decoder's (operand + pos - 1) & 0xFFFF
	// formula: offset = target - pos + 1, where pos is the branch
	// opcode's own byte position.
	//
	//  0: iconst_1                 5: BODY: iload_1          59: L3: getstatic out
	//  1: istore_1                 6:       bipush 15        62:     iload_1
	//  2: goto CHECK(69)           8:       irem             63:     invokevirtual println(I)V
	// 23: L1: iload_1              9:       ifne L1(23)      66: INCR: iinc 1,1
	// 41: L2: iload_1             12:       getstatic out    69: CHECK: iload_1
	//                             15:       ldc FizzBuzz     70:        bipush 15
	//                             17:       invokevirtual    72:        if_icmple BODY(5)
	//                             20:       goto INCR(66)    75: return
	off16 := func(target, pos int) (byte, byte) {
		v := int16(target - pos + 1)
		return byte(v >> 8), byte(v)
	}
	gotoCheckHi, gotoCheckLo := off16(69, 2)
	ifneL1Hi, ifneL1Lo := off16(23, 9)
	gotoIncr1Hi, gotoIncr1Lo := off16(66, 20)
	ifneL2Hi, ifneL2Lo := off16(41, 27)
	gotoIncr2Hi, gotoIncr2Lo := off16(66, 38)
	ifneL3Hi, ifneL3Lo := off16(59, 45)
	gotoIncr3Hi, gotoIncr3Lo := off16(66, 56)
	icmpleBodyHi, icmpleBodyLo := off16(5, 72)

	bytecode := []byte{
		classfile.OpIconst1, // 0
		classfile.OpIstore1, // 1
		classfile.OpGoto, gotoCheckHi, gotoCheckLo, // 2

		// BODY (5): if (i % 15 == 0) println("FizzBuzz"); goto INCR
		classfile.OpIload1,              // 5
		classfile.OpBipush, 15,          // 6
		classfile.OpIrem,                // 8
		classfile.OpIfne, ifneL1Hi, ifneL1Lo, // 9
		classfile.OpGetstatic, byte(outField >> 8), byte(outField), // 12
		classfile.OpLdc, byte(fizzbuzzString), // 15
		classfile.OpInvokevirtual, byte(printlnStringMethod >> 8), byte(printlnStringMethod), // 17
		classfile.OpGoto, gotoIncr1Hi, gotoIncr1Lo, // 20

		// L1 (23): if (i % 3 == 0) println("Fizz"); goto INCR
		classfile.OpIload1,              // 23
		classfile.OpBipush, 3,           // 24
		classfile.OpIrem,                // 26
		classfile.OpIfne, ifneL2Hi, ifneL2Lo, // 27
		classfile.OpGetstatic, byte(outField >> 8), byte(outField), // 30
		classfile.OpLdc, byte(fizzString), // 33
		classfile.OpInvokevirtual, byte(printlnStringMethod >> 8), byte(printlnStringMethod), // 35
		classfile.OpGoto, gotoIncr2Hi, gotoIncr2Lo, // 38

		// L2 (41): if (i % 5 == 0) println("Buzz"); goto INCR
		classfile.OpIload1,              // 41
		classfile.OpBipush, 5,           // 42
		classfile.OpIrem,                // 44
		classfile.OpIfne, ifneL3Hi, ifneL3Lo, // 45
		classfile.OpGetstatic, byte(outField >> 8), byte(outField), // 48
		classfile.OpLdc, byte(buzzString), // 51
		classfile.OpInvokevirtual, byte(printlnStringMethod >> 8), byte(printlnStringMethod), // 53
		classfile.OpGoto, gotoIncr3Hi, gotoIncr3Lo, // 56

		// L3 (59): println(i)
		classfile.OpGetstatic, byte(outField >> 8), byte(outField), // 59
		classfile.OpIload1, // 62
		classfile.OpInvokevirtual, byte(printlnIntMethod >> 8), byte(printlnIntMethod), // 63

		// INCR (66): i++
		classfile.OpIinc, 1, 1, // 66

		// CHECK (69): if (i <= 15) goto BODY
		classfile.OpIload1,     // 69
		classfile.OpBipush, 15, // 70
		classfile.OpIfIcmple, icmpleBodyHi, icmpleBodyLo, // 72

		classfile.OpReturn, // 75
	}
	methodBody := encodeMethod(codeAttrName, classfile.AccPublic|classfile.AccStatic, mainName, mainDesc, 2, 2, bytecode)
	raw := b.build(thisClass, superClass, emptyFieldsTable(), encodeMethodsTable(methodBody))

	dir := t.TempDir()
	writeClassFile(t, dir, "FizzBuzz", raw)
	ctx, out := newTestContext(dir)

	require.NoError(t, ctx.RunEntry("FizzBuzz"))
	want := "1\n2\nFizz\n4\nBuzz\nFizz\n7\n8\nFizz\nBuzz\n11\nFizz\n13\n14\nFizzBuzz\n"
	require.Equal(t, want, out.String())
}

// TestInstanceFieldRoundtrip exercises new/putfield/getfield plus a
// println(int) receiver resolved through the System.out indirection
// (spec §8 scenario: instance field roundtrip; see DESIGN.md Open
// Question decision 4 for the System.out design).
func TestInstanceFieldRoundtrip(t *testing.T) {
	b := newClassBuilder()
	thisName := b.addUtf8("Counter")
	thisClass := b.addClass(thisName)
	superName := b.addUtf8("java/lang/Object")
	superClass := b.addClass(superName)
	codeAttrName := b.addUtf8("Code")
	mainName := b.addUtf8("main")
	mainDesc := b.addUtf8("([Ljava/lang/String;)V")

	countName := b.addUtf8("count")
	intDesc := b.addUtf8("I")
	countNat := b.addNameAndType(countName, intDesc)
	countField := b.addFieldref(thisClass, countNat)

	initName := b.addUtf8("<init>")
	voidDesc := b.addUtf8("()V")
	initNat := b.addNameAndType(initName, voidDesc)
	objectInitMethod := b.addMethodref(superClass, initNat)

	systemName := b.addUtf8("java/lang/System")
	systemClass := b.addClass(systemName)
	outName := b.addUtf8("out")
	outDesc := b.addUtf8("Ljava/io/PrintStream;")
	outNat := b.addNameAndType(outName, outDesc)
	outField := b.addFieldref(systemClass, outNat)

	printStreamName := b.addUtf8("java/io/PrintStream")
	printStreamClass := b.addClass(printStreamName)
	printlnName := b.addUtf8("println")
	printlnIntDesc := b.addUtf8("(I)V")
	printlnNat := b.addNameAndType(printlnName, printlnIntDesc)
	printlnMethod := b.addMethodref(printStreamClass, printlnNat)

	bytecode := []byte{
		classfile.OpNew, byte(thisClass >> 8), byte(thisClass),
		classfile.OpDup,
		classfile.OpInvokespecial, byte(objectInitMethod >> 8), byte(objectInitMethod),
		classfile.OpAstore1,
		classfile.OpGetstatic, byte(outField >> 8), byte(outField),
		classfile.OpAload1,
		classfile.OpBipush, 42,
		classfile.OpPutfield, byte(countField >> 8), byte(countField),
		classfile.OpAload1,
		classfile.OpGetfield, byte(countField >> 8), byte(countField),
		classfile.OpInvokevirtual, byte(printlnMethod >> 8), byte(printlnMethod),
		classfile.OpReturn,
	}
	methodBody := encodeMethod(codeAttrName, classfile.AccPublic|classfile.AccStatic, mainName, mainDesc, 3, 2, bytecode)

	fields := encodeFieldsTable(encodeField(0, countName, intDesc))
	raw := b.build(thisClass, superClass, fields, encodeMethodsTable(methodBody))

	dir := t.TempDir()
	writeClassFile(t, dir, "Counter", raw)
	ctx, out := newTestContext(dir)

	require.NoError(t, ctx.RunEntry("Counter"))
	require.Equal(t, "42\n", out.String())
}

// TestLazyClinitIdempotence loads the same class twice and checks
// <clinit> only ran once (spec §8 "Lazy-loading idempotence").
func TestLazyClinitIdempotence(t *testing.T) {
	b := newClassBuilder()
	thisName := b.addUtf8("StaticHolder")
	thisClass := b.addClass(thisName)
	superName := b.addUtf8("java/lang/Object")
	superClass := b.addClass(superName)
	codeAttrName := b.addUtf8("Code")
	clinitName := b.addUtf8("<clinit>")
	voidDesc := b.addUtf8("()V")
	countName := b.addUtf8("count")
	intDesc := b.addUtf8("I")
	countNat := b.addNameAndType(countName, intDesc)
	countField := b.addFieldref(thisClass, countNat)

	bytecode := []byte{
		classfile.OpGetstatic, byte(countField >> 8), byte(countField),
		classfile.OpIconst1,
		classfile.OpIadd,
		classfile.OpPutstatic, byte(countField >> 8), byte(countField),
		classfile.OpReturn,
	}
	methodBody := encodeMethod(codeAttrName, classfile.AccStatic, clinitName, voidDesc, 2, 0, bytecode)
	fields := encodeFieldsTable(encodeField(classfile.AccStatic, countName, intDesc))
	raw := b.build(thisClass, superClass, fields, encodeMethodsTable(methodBody))

	dir := t.TempDir()
	writeClassFile(t, dir, "StaticHolder", raw)
	ctx, _ := newTestContext(dir)

	_, err := ctx.LoadClass("StaticHolder")
	require.NoError(t, err)
	_, err = ctx.LoadClass("StaticHolder")
	require.NoError(t, err)

	nameID := ctx.Strings.Intern("StaticHolder")
	fieldID := ctx.Strings.Intern("count")
	pair := ctx.Heap.GetStatic(nameID, fieldID)
	require.Equal(t, int32(1), pair[0].I32)
}

// TestIntArithmeticExpression exercises the full decode-dispatch loop
// (runFrame) on (3+4)*5/7%4 (spec §8 scenario: int arithmetic).
func TestIntArithmeticExpression(t *testing.T) {
	code := []classfile.Instruction{
		classfile.PushInt{Value: 3},
		classfile.PushInt{Value: 4},
		classfile.BinOp{Op: classfile.OpAdd},
		classfile.PushInt{Value: 5},
		classfile.BinOp{Op: classfile.OpMul},
		classfile.PushInt{Value: 7},
		classfile.BinOp{Op: classfile.OpDiv},
		classfile.PushInt{Value: 4},
		classfile.BinOp{Op: classfile.OpRem},
		classfile.Return{Kind: classfile.ReturnInt},
	}
	ctx, _ := newTestContext(t.TempDir())
	frame := NewFrame(0, 10, code, nil, "Test.main")

	ret, err := ctx.runFrame(frame)
	require.NoError(t, err)
	require.Len(t, ret, 1)
	require.Equal(t, int32(1), ret[0].I32) // (3+4)*5/7%4 = 35/7%4 = 5%4 = 1
}

// TestLongArithmetic exercises the two-slot Long convention directly
// through the binop handler (spec §8 scenario: long arithmetic,
// 1000000000L * 1000000000L).
func TestLongArithmetic(t *testing.T) {
	f := NewFrame(0, 4, nil, nil, "test")
	f.PushLong(1000000000)
	f.PushLong(1000000000)

	require.NoError(t, execBinOp(f, classfile.BinOp{Op: classfile.OpMul, Long: true}))
	require.Equal(t, int64(1000000000)*int64(1000000000), f.PopLong())
}

// TestMultiDimIntArray exercises multianewarray's recursive
// construction for a [2][3] int array (spec §8 scenario).
func TestMultiDimIntArray(t *testing.T) {
	ctx, _ := newTestContext(t.TempDir())

	id, err := ctx.buildMultiArray([]int32{2, 3}, "I")
	require.NoError(t, err)

	outer, err := ctx.Heap.Array(id)
	require.NoError(t, err)
	require.Equal(t, ArrayOfArrays, outer.Kind)
	require.Equal(t, 2, outer.Length())

	for _, childID := range outer.Nested {
		child, err := ctx.Heap.Array(childID)
		require.NoError(t, err)
		require.Equal(t, ArrayPrimitive, child.Kind)
		require.Equal(t, 3, child.Length())
		for _, e := range child.Elements {
			require.Equal(t, IntItem(0), e[0])
		}
	}
}
