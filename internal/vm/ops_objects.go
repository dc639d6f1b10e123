package vm

import (
	"jvmlet/internal/classfile"
	"jvmlet/internal/vmerr"
)

// pushPair pushes a two-slot field/static value in the PushLong/PushDouble
// convention (high half, or the whole single-slot value, pushed first).
func pushPair(f *Frame, pair [2]Item, kind paramKind) {
	f.Push(pair[0])
	if kind.slots() == 2 {
		f.Push(pair[1])
	}
}

// popPair pops a two-slot field/static value, returning it as [hi, lo]
// (or [value, unused] for single-slot kinds).
func popPair(f *Frame, kind paramKind) [2]Item {
	if kind.slots() == 2 {
		lo := f.Pop()
		hi := f.Pop()
		return [2]Item{hi, lo}
	}
	v := f.Pop()
	return [2]Item{v, NullItem()}
}

func (ctx *Context) execGetStatic(f *Frame, in classfile.GetStatic) error {
	mr, kind, err := ctx.resolveFieldRef(f, in.Index)
	if err != nil {
		return err
	}
	entry, err := ctx.resolveFieldClass(f, mr)
	if err != nil {
		return err
	}
	pair := ctx.Heap.GetStatic(entry.NameID, mr.MemberNameID)
	pushPair(f, pair, kind)
	return nil
}

func (ctx *Context) execPutStatic(f *Frame, in classfile.PutStatic) error {
	mr, kind, err := ctx.resolveFieldRef(f, in.Index)
	if err != nil {
		return err
	}
	entry, err := ctx.resolveFieldClass(f, mr)
	if err != nil {
		return err
	}
	pair := popPair(f, kind)
	ctx.Heap.SetStatic(entry.NameID, mr.MemberNameID, pair)
	return nil
}

func (ctx *Context) execGetField(f *Frame, in classfile.GetField) error {
	mr, kind, err := ctx.resolveFieldRef(f, in.Index)
	if err != nil {
		return err
	}
	ref := f.Pop()
	if ref.Kind != ItemObjectref {
		return vmerr.State("getfield", "expected Objectref, got kind %d", ref.Kind)
	}
	obj, err := ctx.Heap.Object(ObjectID(ref.ID))
	if err != nil {
		return err
	}
	pair := obj.Fields[mr.MemberNameID]
	pushPair(f, pair, kind)
	return nil
}

func (ctx *Context) execPutField(f *Frame, in classfile.PutField) error {
	mr, kind, err := ctx.resolveFieldRef(f, in.Index)
	if err != nil {
		return err
	}
	pair := popPair(f, kind)
	ref := f.Pop()
	if ref.Kind != ItemObjectref {
		return vmerr.State("putfield", "expected Objectref, got kind %d", ref.Kind)
	}
	obj, err := ctx.Heap.Object(ObjectID(ref.ID))
	if err != nil {
		return err
	}
	obj.Fields[mr.MemberNameID] = pair
	return nil
}

// resolveFieldRef resolves a Fieldref constant pool entry and the
// paramKind of its descriptor (needed to know the field's slot width).
func (ctx *Context) resolveFieldRef(f *Frame, cpIndex uint16) (classfile.MemberRef, paramKind, error) {
	mr, err := f.Class.File.ConstantPool.FieldRefAt(cpIndex)
	if err != nil {
		return classfile.MemberRef{}, 0, err
	}
	desc, err := ctx.Strings.Resolve(mr.DescriptorID)
	if err != nil {
		return classfile.MemberRef{}, 0, err
	}
	kind, _, err := parseParamKind(desc)
	if err != nil {
		return classfile.MemberRef{}, 0, err
	}
	return mr, kind, nil
}

func (ctx *Context) resolveFieldClass(f *Frame, mr classfile.MemberRef) (*ClassEntry, error) {
	className, err := ctx.Strings.Resolve(mr.ClassNameID)
	if err != nil {
		return nil, err
	}
	return ctx.resolveClassForCall(mr.ClassNameID, className, f)
}

// execNew materializes a fresh Objectref with one field-map entry per
// the class's own declared (non-static) fields, valued per descriptor
// default (spec §4.8).
func (ctx *Context) execNew(f *Frame, in classfile.New) error {
	classNameID, err := f.Class.File.ConstantPool.ClassNameAt(in.Index)
	if err != nil {
		return err
	}
	className, err := ctx.Strings.Resolve(classNameID)
	if err != nil {
		return err
	}
	entry, err := ctx.resolveClassForCall(classNameID, className, f)
	if err != nil {
		return err
	}
	if entry.File == nil {
		return vmerr.Unsupported("new", "cannot instantiate built-in class %s directly", className)
	}

	var nameIDs []int
	var descs []string
	for _, field := range entry.File.Fields {
		if field.IsStatic() {
			continue
		}
		desc, err := ctx.Strings.Resolve(field.DescriptorID)
		if err != nil {
			return err
		}
		nameIDs = append(nameIDs, field.NameID)
		descs = append(descs, desc)
	}

	id := ctx.Heap.NewObject(entry.NameID, nameIDs, descs)
	f.Push(ObjectrefItem(int(id)))
	return nil
}

func (ctx *Context) execNewArray(f *Frame, in classfile.NewArray) error {
	length := f.Pop()
	if length.Kind != ItemInt {
		return vmerr.State("newarray", "expected Int length, got kind %d", length.Kind)
	}
	desc := primitiveArrayDescriptor(in.TypeTag)
	if desc == "" {
		return vmerr.Decode("newarray", "unknown primitive type tag %d", in.TypeTag)
	}
	id, err := ctx.Heap.NewPrimitiveArray(desc, int(length.I32))
	if err != nil {
		return err
	}
	f.Push(ArrayrefItem(int(id)))
	return nil
}

func primitiveArrayDescriptor(tag byte) string {
	switch tag {
	case classfile.ArrayTypeBoolean:
		return "Z"
	case classfile.ArrayTypeChar:
		return "C"
	case classfile.ArrayTypeFloat:
		return "F"
	case classfile.ArrayTypeDouble:
		return "D"
	case classfile.ArrayTypeByte:
		return "B"
	case classfile.ArrayTypeShort:
		return "S"
	case classfile.ArrayTypeInt:
		return "I"
	case classfile.ArrayTypeLong:
		return "J"
	default:
		return ""
	}
}

// execANewArray pre-allocates `length` objects of the referenced class
// into the ObjectMap, per spec §4.8.
func (ctx *Context) execANewArray(f *Frame, in classfile.ANewArray) error {
	length := f.Pop()
	if length.Kind != ItemInt {
		return vmerr.State("anewarray", "expected Int length, got kind %d", length.Kind)
	}
	classNameID, err := f.Class.File.ConstantPool.ClassNameAt(in.ClassIndex)
	if err != nil {
		return err
	}
	id, err := ctx.Heap.NewObjectArray(classNameID, int(length.I32))
	if err != nil {
		return err
	}
	f.Push(ArrayrefItem(int(id)))
	return nil
}

// execMultiANewArray pops `dimensions` lengths and recursively
// materializes nested Array entries whose leaves are Primitive arrays
// (spec §4.8). The element type is read from the referenced class
// descriptor's array-nesting depth to find the eventual leaf kind.
func (ctx *Context) execMultiANewArray(f *Frame, in classfile.MultiANewArray) error {
	classNameID, err := f.Class.File.ConstantPool.ClassNameAt(in.ClassIndex)
	if err != nil {
		return err
	}
	className, err := ctx.Strings.Resolve(classNameID)
	if err != nil {
		return err
	}

	dims := int(in.Dimensions)
	if dims < 1 {
		return vmerr.Decode("multianewarray", "dimensions must be >= 1, got %d", dims)
	}
	lengths := make([]int32, dims)
	for i := dims - 1; i >= 0; i-- {
		v := f.Pop()
		if v.Kind != ItemInt {
			return vmerr.State("multianewarray", "expected Int dimension length, got kind %d", v.Kind)
		}
		lengths[i] = v.I32
	}

	// className is the array's own descriptor, e.g. "[[I"; strip one
	// leading '[' per nesting level already accounted for by `dims`.
	leafDescriptor := className
	for i := 0; i < dims && len(leafDescriptor) > 0 && leafDescriptor[0] == '['; i++ {
		leafDescriptor = leafDescriptor[1:]
	}

	id, err := ctx.buildMultiArray(lengths, leafDescriptor)
	if err != nil {
		return err
	}
	f.Push(ArrayrefItem(int(id)))
	return nil
}

func (ctx *Context) buildMultiArray(lengths []int32, leafDescriptor string) (ArrayID, error) {
	if len(lengths) == 1 {
		return ctx.Heap.NewPrimitiveArray(leafDescriptor, int(lengths[0]))
	}
	n := int(lengths[0])
	if n < 0 {
		return 0, vmerr.State("multianewarray", "negative array length %d", n)
	}
	children := make([]ArrayID, n)
	for i := 0; i < n; i++ {
		child, err := ctx.buildMultiArray(lengths[1:], leafDescriptor)
		if err != nil {
			return 0, err
		}
		children[i] = child
	}
	return ctx.Heap.NewNestedArray(children, leafDescriptor), nil
}
