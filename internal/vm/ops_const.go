package vm

import (
	"jvmlet/internal/classfile"
	"jvmlet/internal/vmerr"
)

// execLoadConst implements ldc: push an Int, Float, String, or Class
// literal from the constant pool.
func execLoadConst(f *Frame, in classfile.LoadConst) error {
	pool := f.Class.File.ConstantPool
	entry, err := pool.At(in.Index)
	if err != nil {
		return err
	}
	switch e := entry.(type) {
	case classfile.Integer:
		f.Push(IntItem(e.Value))
	case classfile.Float:
		f.Push(FloatItem(e.Value))
	case classfile.String:
		id, err := pool.StringAt(in.Index)
		if err != nil {
			return err
		}
		f.Push(StringItem(id))
	case classfile.Class:
		nameID, err := pool.ClassNameAt(in.Index)
		if err != nil {
			return err
		}
		f.Push(ClassrefItem(nameID))
	default:
		return vmerr.State("ldc", "constant pool index %d is not loadable by ldc", in.Index)
	}
	return nil
}

// execLoadConstWide implements ldc2_w: push a Long or Double literal.
func execLoadConstWide(f *Frame, in classfile.LoadConstWide) error {
	pool := f.Class.File.ConstantPool
	entry, err := pool.At(in.Index)
	if err != nil {
		return err
	}
	switch e := entry.(type) {
	case classfile.Long:
		f.PushLong(e.Value)
	case classfile.Double:
		f.PushDouble(e.Value)
	default:
		return vmerr.State("ldc2_w", "constant pool index %d is not a Long or Double", in.Index)
	}
	return nil
}
