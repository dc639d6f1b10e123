package vm

import (
	"jvmlet/internal/classfile"
	"jvmlet/internal/vmerr"
)

func execLoadLocal(f *Frame, in classfile.LoadLocal) {
	if in.Kind == LocalLong {
		lo := f.GetLocal(int(in.Index) + 1)
		hi := f.GetLocal(int(in.Index))
		f.Push(hi)
		f.Push(lo)
		return
	}
	f.Push(f.GetLocal(int(in.Index)))
}

func execStoreLocal(f *Frame, in classfile.StoreLocal) {
	if in.Kind == LocalLong {
		lo := f.Pop()
		hi := f.Pop()
		f.SetLocal(int(in.Index), hi)
		f.SetLocal(int(in.Index)+1, lo)
		return
	}
	f.SetLocal(int(in.Index), f.Pop())
}

func execIncLocal(f *Frame, in classfile.IncLocal) error {
	v := f.GetLocal(int(in.Index))
	if v.Kind != ItemInt {
		return vmerr.State("iinc", "expected Int local, got kind %d", v.Kind)
	}
	f.SetLocal(int(in.Index), IntItem(v.I32+in.Amount))
	return nil
}

func execBinOp(f *Frame, in classfile.BinOp) error {
	if in.Long {
		b := f.PopLong()
		a := f.PopLong()
		r, err := applyBinOpLong(in.Op, a, b)
		if err != nil {
			return err
		}
		f.PushLong(r)
		return nil
	}
	b := f.Pop()
	a := f.Pop()
	if a.Kind != ItemInt || b.Kind != ItemInt {
		return vmerr.State("binop", "expected two Int operands, got kinds %d, %d", a.Kind, b.Kind)
	}
	r, err := applyBinOpInt(in.Op, a.I32, b.I32)
	if err != nil {
		return err
	}
	f.Push(IntItem(r))
	return nil
}

func applyBinOpInt(op classfile.BinOpKind, a, b int32) (int32, error) {
	switch op {
	case classfile.OpAdd:
		return a + b, nil
	case classfile.OpSub:
		return a - b, nil
	case classfile.OpMul:
		return a * b, nil
	case classfile.OpDiv:
		if b == 0 {
			return 0, vmerr.Arithmetic("idiv", "division by zero")
		}
		return a / b, nil
	case classfile.OpRem:
		if b == 0 {
			return 0, vmerr.Arithmetic("irem", "division by zero")
		}
		return a % b, nil
	default:
		return 0, vmerr.Unsupported("binop", "unknown int operator %d", op)
	}
}

func applyBinOpLong(op classfile.BinOpKind, a, b int64) (int64, error) {
	switch op {
	case classfile.OpAdd:
		return a + b, nil
	case classfile.OpSub:
		return a - b, nil
	case classfile.OpMul:
		return a * b, nil
	case classfile.OpDiv:
		if b == 0 {
			return 0, vmerr.Arithmetic("ldiv", "division by zero")
		}
		return a / b, nil
	case classfile.OpRem:
		if b == 0 {
			return 0, vmerr.Arithmetic("lrem", "division by zero")
		}
		return a % b, nil
	default:
		return 0, vmerr.Unsupported("binop", "unknown long operator %d", op)
	}
}

func execLCmp(f *Frame) {
	b := f.PopLong()
	a := f.PopLong()
	switch {
	case a > b:
		f.Push(IntItem(1))
	case a < b:
		f.Push(IntItem(-1))
	default:
		f.Push(IntItem(0))
	}
}

func compareInt(cond classfile.CmpOp, v int32) bool {
	switch cond {
	case classfile.CmpEq:
		return v == 0
	case classfile.CmpNe:
		return v != 0
	case classfile.CmpLt:
		return v < 0
	case classfile.CmpGe:
		return v >= 0
	case classfile.CmpGt:
		return v > 0
	case classfile.CmpLe:
		return v <= 0
	default:
		return false
	}
}

func execIfZero(f *Frame, in classfile.IfZero) (int, error) {
	v := f.Pop()
	if v.Kind != ItemInt {
		return 0, vmerr.State("if<cond>", "expected Int operand, got kind %d", v.Kind)
	}
	if compareInt(in.Cond, v.I32) {
		return in.Target, nil
	}
	return f.PC + 1, nil
}

func execIfICmp(f *Frame, in classfile.IfICmp) (int, error) {
	b := f.Pop()
	a := f.Pop()
	if a.Kind != ItemInt || b.Kind != ItemInt {
		return 0, vmerr.State("if_icmp<cond>", "expected two Int operands, got kinds %d, %d", a.Kind, b.Kind)
	}
	if compareInt(in.Cond, a.I32-b.I32) {
		return in.Target, nil
	}
	return f.PC + 1, nil
}

func execLookupSwitch(f *Frame, in classfile.LookupSwitch) (int, error) {
	v := f.Pop()
	if v.Kind != ItemInt {
		return 0, vmerr.State("lookupswitch", "expected Int key, got kind %d", v.Kind)
	}
	for _, pair := range in.Pairs {
		if pair.Key == v.I32 {
			return pair.Target, nil
		}
	}
	return in.Default, nil
}

func execArrayLoad(ctx *Context, f *Frame, in classfile.ArrayLoad) error {
	index := f.Pop()
	ref := f.Pop()
	if index.Kind != ItemInt {
		return vmerr.State("arrayload", "expected Int index, got kind %d", index.Kind)
	}
	if ref.Kind != ItemArrayref {
		return vmerr.State("arrayload", "expected Arrayref, got kind %d", ref.Kind)
	}
	arr, err := ctx.Heap.Array(ArrayID(ref.ID))
	if err != nil {
		return err
	}
	i := int(index.I32)
	if i < 0 || i >= arr.Length() {
		return vmerr.State("arrayload", "index %d out of bounds for length %d", i, arr.Length())
	}

	switch in.Kind {
	case classfile.ArrayElemInt:
		if arr.Kind != ArrayPrimitive {
			return vmerr.State("iaload", "expected primitive array")
		}
		f.Push(arr.Elements[i][0])
	case classfile.ArrayElemRef:
		switch arr.Kind {
		case ArrayOfArrays:
			f.Push(ArrayrefItem(int(arr.Nested[i])))
		case ArrayOfObjects:
			f.Push(ObjectrefItem(int(arr.Objects[i])))
		default:
			return vmerr.State("aaload", "expected reference array")
		}
	}
	return nil
}

func execArrayStore(ctx *Context, f *Frame, in classfile.ArrayStore) error {
	switch in.Kind {
	case classfile.ArrayElemInt:
		value := f.Pop()
		index := f.Pop()
		ref := f.Pop()
		if value.Kind != ItemInt {
			return vmerr.State("iastore", "expected Int value, got kind %d", value.Kind)
		}
		if index.Kind != ItemInt {
			return vmerr.State("iastore", "expected Int index, got kind %d", index.Kind)
		}
		if ref.Kind != ItemArrayref {
			return vmerr.State("iastore", "expected Arrayref, got kind %d", ref.Kind)
		}
		arr, err := ctx.Heap.Array(ArrayID(ref.ID))
		if err != nil {
			return err
		}
		i := int(index.I32)
		if i < 0 || i >= arr.Length() || arr.Kind != ArrayPrimitive {
			return vmerr.State("iastore", "index %d out of bounds for length %d", i, arr.Length())
		}
		arr.Elements[i][0] = value
		return nil

	case classfile.ArrayElemRef:
		value := f.Pop()
		index := f.Pop()
		ref := f.Pop()
		if index.Kind != ItemInt {
			return vmerr.State("aastore", "expected Int index, got kind %d", index.Kind)
		}
		if ref.Kind != ItemArrayref {
			return vmerr.State("aastore", "expected Arrayref, got kind %d", ref.Kind)
		}
		arr, err := ctx.Heap.Array(ArrayID(ref.ID))
		if err != nil {
			return err
		}
		i := int(index.I32)
		if i < 0 || i >= arr.Length() {
			return vmerr.State("aastore", "index %d out of bounds for length %d", i, arr.Length())
		}
		switch arr.Kind {
		case ArrayOfArrays:
			if value.Kind != ItemArrayref {
				return vmerr.State("aastore", "expected Arrayref value, got kind %d", value.Kind)
			}
			arr.Nested[i] = ArrayID(value.ID)
		case ArrayOfObjects:
			if value.Kind != ItemObjectref {
				return vmerr.State("aastore", "expected Objectref value, got kind %d", value.Kind)
			}
			arr.Objects[i] = ObjectID(value.ID)
		default:
			return vmerr.State("aastore", "expected reference array")
		}
		return nil

	default:
		return vmerr.Unsupported("arraystore", "unknown array store kind %d", in.Kind)
	}
}
