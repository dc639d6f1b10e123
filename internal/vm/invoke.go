package vm

import (
	"jvmlet/internal/classfile"
	"jvmlet/internal/vmerr"
)

// invokeKind distinguishes the three call opcodes; the invocation
// contract (spec §4.8) is otherwise identical across them. This
// implementation does not model vtable-based dynamic dispatch: a call
// resolves to whatever method lookupBuiltinMethod/findMethodInChain
// finds by (class, name, descriptor) — adequate for the instruction
// subset in §4.5, which has no interface-call opcode.
type invokeKind int

const (
	invokeVirtual invokeKind = iota
	invokeSpecial
	invokeStatic
)

func (ctx *Context) execInvoke(caller *Frame, cpIndex uint16, kind invokeKind) error {
	mr, err := caller.Class.File.ConstantPool.MethodRefAt(cpIndex)
	if err != nil {
		return err
	}
	className, err := ctx.Strings.Resolve(mr.ClassNameID)
	if err != nil {
		return err
	}
	methodName, err := ctx.Strings.Resolve(mr.MemberNameID)
	if err != nil {
		return err
	}
	descriptor, err := ctx.Strings.Resolve(mr.DescriptorID)
	if err != nil {
		return err
	}

	entry, err := ctx.resolveClassForCall(mr.ClassNameID, className, caller)
	if err != nil {
		return err
	}

	if entry.IsBuiltin() {
		m, ok := entry.Builtin.lookupBuiltinMethod(methodName, descriptor)
		if !ok {
			return vmerr.Unsupported("invoke", "no built-in method %s.%s%s", className, methodName, descriptor)
		}
		return invokeBuiltin(ctx, caller, m, kind == invokeStatic)
	}

	method, owner, err := ctx.findMethodInChain(entry, mr.MemberNameID, mr.DescriptorID)
	if err != nil {
		return err
	}
	if method.Code == nil {
		return vmerr.Unsupported("invoke", "method %s.%s%s has no Code attribute", className, methodName, descriptor)
	}

	sig, err := parseMethodDescriptor(descriptor)
	if err != nil {
		return err
	}

	nReceiver := 0
	if kind != invokeStatic {
		nReceiver = 1
	}
	total := sig.paramSlotWidth() + nReceiver

	// Pop the topmost `total` operand-stack slots, which are already in
	// source order bottom-to-top (receiver first, then each parameter's
	// slots in order): the callee's locals occupy the same slot layout.
	items := make([]Item, total)
	for i := total - 1; i >= 0; i-- {
		items[i] = caller.Pop()
	}

	callee := NewFrame(method.Code.MaxLocals, method.Code.MaxStack, method.Code.Instructions, owner, className+"."+methodName+descriptor)
	for i, v := range items {
		callee.SetLocal(i, v)
	}

	ret, err := ctx.runFrame(callee)
	if err != nil {
		return err
	}
	for _, v := range ret {
		caller.Push(v)
	}
	return nil
}

// resolveClassForCall returns the already-current class without a
// registry round-trip when a call targets it, and otherwise loads
// (and, per spec §4.8 step 2, runs <clinit> for) the target class.
func (ctx *Context) resolveClassForCall(classNameID int, className string, caller *Frame) (*ClassEntry, error) {
	if caller.Class != nil && caller.Class.NameID == classNameID {
		return caller.Class, nil
	}
	return ctx.LoadClass(className)
}

// findMethodInChain looks up (nameID, descID) in entry, then walks the
// superclass chain, loading superclasses on demand (mirrors
// ClassFile.FindMethod's doc comment about walking superclasses).
func (ctx *Context) findMethodInChain(entry *ClassEntry, nameID, descID int) (*classfile.MethodInfo, *ClassEntry, error) {
	cur := entry
	for cur != nil && cur.File != nil {
		if m := cur.File.FindMethod(nameID, descID); m != nil {
			return m, cur, nil
		}
		if cur.File.SuperNameID == 0 {
			break
		}
		superName, err := ctx.Strings.Resolve(cur.File.SuperNameID)
		if err != nil {
			return nil, nil, err
		}
		next, err := ctx.LoadClass(superName)
		if err != nil {
			return nil, nil, err
		}
		cur = next
	}
	return nil, nil, vmerr.Resolution("invoke", "method not found in class %s or its superclasses", ctx.className(entry))
}
