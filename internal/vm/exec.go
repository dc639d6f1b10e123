package vm

import (
	"path/filepath"

	"go.uber.org/zap"

	"jvmlet/internal/classfile"
	"jvmlet/internal/stringpool"
	"jvmlet/internal/vmerr"
)

// RunEntry loads the named entry class, runs its superclass's <clinit>
// if one exists, then executes its public static main (spec §4.8
// "Entry"). className is the fully-qualified internal class name
// without the ".class" suffix; it is resolved against ctx.RootDir.
func (ctx *Context) RunEntry(className string) error {
	entry, err := ctx.loadEntryClass(className)
	if err != nil {
		return err
	}

	var superNameID int
	if entry.File.SuperNameID != 0 {
		superName, err := ctx.Strings.Resolve(entry.File.SuperNameID)
		if err != nil {
			return err
		}
		superEntry, err := ctx.LoadClass(superName)
		if err != nil {
			return err
		}
		superNameID = superEntry.NameID
	}

	mainNameID := ctx.Strings.Intern("main")
	mainDescID := ctx.Strings.Intern("([Ljava/lang/String;)V")
	method := entry.File.FindMethod(mainNameID, mainDescID)
	if method == nil || method.Code == nil {
		return vmerr.Resolution("run_entry", "entry class %s has no executable main method", className)
	}

	frame := NewFrame(method.Code.MaxLocals, method.Code.MaxStack, method.Code.Instructions, entry, className+".main")
	if method.Code.MaxLocals > 0 {
		frame.SetLocal(0, ClassrefItem(superNameID))
	}
	_, err = ctx.runFrame(frame)
	return err
}

// loadEntryClass parses and registers the top-level class without
// running its own <clinit> — per the Open Question decision (spec §9),
// only the entry class's *super* gets an eager <clinit> run at entry;
// the entry class's own <clinit>, if any, only runs when something
// else references it the ordinary lazy way.
func (ctx *Context) loadEntryClass(className string) (*ClassEntry, error) {
	nameID := ctx.Strings.Intern(className)
	if entry, ok := ctx.Classes[nameID]; ok {
		return entry, nil
	}
	path := filepath.Join(ctx.RootDir, className+".class")
	cf, err := classfile.ParseFile(path, ctx.Strings)
	if err != nil {
		return nil, vmerr.ResolutionWrap(err, "loading entry class "+className)
	}
	entry := &ClassEntry{NameID: nameID, File: cf}
	ctx.Classes[nameID] = entry
	ctx.registerStaticDefaults(entry)
	return entry, nil
}

// runFrame drives the per-method decode-dispatch loop (spec §4.8): at
// each step it reads the instruction at the cursor, dispatches, and
// computes the next cursor (branches set it directly; everything else
// advances by one slot, which skips NoOp padding automatically since
// padding entries are themselves NoOp instructions). A Return-family
// instruction or fatal error exits the loop.
func (ctx *Context) runFrame(frame *Frame) (ret []Item, err error) {
	defer recoverFrameFault(frame.Method, &err)

	for {
		if frame.PC < 0 || frame.PC >= len(frame.Code) {
			return nil, vmerr.State(frame.Method, "PC %d out of range (code length %d)", frame.PC, len(frame.Code))
		}
		instr := frame.Code[frame.PC]
		ctx.logStep(frame, instr)

		switch in := instr.(type) {
		case classfile.NoOp:
			frame.PC++

		case classfile.PushNull:
			frame.Push(NullItem())
			frame.PC++
		case classfile.PushInt:
			frame.Push(IntItem(in.Value))
			frame.PC++
		case classfile.PushLong:
			frame.PushLong(in.Value)
			frame.PC++

		case classfile.LoadConst:
			if err := execLoadConst(frame, in); err != nil {
				return nil, err
			}
			frame.PC++
		case classfile.LoadConstWide:
			if err := execLoadConstWide(frame, in); err != nil {
				return nil, err
			}
			frame.PC++

		case classfile.LoadLocal:
			execLoadLocal(frame, in)
			frame.PC++
		case classfile.StoreLocal:
			execStoreLocal(frame, in)
			frame.PC++
		case classfile.IncLocal:
			if err := execIncLocal(frame, in); err != nil {
				return nil, err
			}
			frame.PC++

		case classfile.ArrayLoad:
			if err := execArrayLoad(ctx, frame, in); err != nil {
				return nil, err
			}
			frame.PC++
		case classfile.ArrayStore:
			if err := execArrayStore(ctx, frame, in); err != nil {
				return nil, err
			}
			frame.PC++

		case classfile.NewArray:
			if err := ctx.execNewArray(frame, in); err != nil {
				return nil, err
			}
			frame.PC++
		case classfile.ANewArray:
			if err := ctx.execANewArray(frame, in); err != nil {
				return nil, err
			}
			frame.PC++
		case classfile.MultiANewArray:
			if err := ctx.execMultiANewArray(frame, in); err != nil {
				return nil, err
			}
			frame.PC++

		case classfile.Pop:
			frame.Pop()
			frame.PC++
		case classfile.Dup:
			v := frame.Pop()
			frame.Push(v)
			frame.Push(v)
			frame.PC++

		case classfile.BinOp:
			if err := execBinOp(frame, in); err != nil {
				return nil, err
			}
			frame.PC++
		case classfile.LCmp:
			execLCmp(frame)
			frame.PC++

		case classfile.IfZero:
			next, err := execIfZero(frame, in)
			if err != nil {
				return nil, err
			}
			frame.PC = next
		case classfile.IfICmp:
			next, err := execIfICmp(frame, in)
			if err != nil {
				return nil, err
			}
			frame.PC = next
		case classfile.Goto:
			frame.PC = in.Target
		case classfile.LookupSwitch:
			next, err := execLookupSwitch(frame, in)
			if err != nil {
				return nil, err
			}
			frame.PC = next

		case classfile.Return:
			return execReturn(frame, in)

		case classfile.GetStatic:
			if err := ctx.execGetStatic(frame, in); err != nil {
				return nil, err
			}
			frame.PC++
		case classfile.PutStatic:
			if err := ctx.execPutStatic(frame, in); err != nil {
				return nil, err
			}
			frame.PC++
		case classfile.GetField:
			if err := ctx.execGetField(frame, in); err != nil {
				return nil, err
			}
			frame.PC++
		case classfile.PutField:
			if err := ctx.execPutField(frame, in); err != nil {
				return nil, err
			}
			frame.PC++

		case classfile.InvokeVirtual:
			if err := ctx.execInvoke(frame, in.Index, invokeVirtual); err != nil {
				return nil, err
			}
			frame.PC++
		case classfile.InvokeSpecial:
			if err := ctx.execInvoke(frame, in.Index, invokeSpecial); err != nil {
				return nil, err
			}
			frame.PC++
		case classfile.InvokeStatic:
			if err := ctx.execInvoke(frame, in.Index, invokeStatic); err != nil {
				return nil, err
			}
			frame.PC++

		case classfile.New:
			if err := ctx.execNew(frame, in); err != nil {
				return nil, err
			}
			frame.PC++

		default:
			return nil, vmerr.Unsupported(frame.Method, "unimplemented instruction %T", instr)
		}
	}
}

// execReturn pops the return value (if any), per spec §4.8 "Return":
// ireturn/areturn pop one value and hand it back to the caller;
// return transfers nothing.
func execReturn(f *Frame, in classfile.Return) ([]Item, error) {
	switch in.Kind {
	case classfile.ReturnVoid:
		return nil, nil
	case classfile.ReturnInt, classfile.ReturnRef:
		return []Item{f.Pop()}, nil
	default:
		return nil, vmerr.Unsupported("return", "unknown return kind %d", in.Kind)
	}
}

func (ctx *Context) logStep(frame *Frame, instr classfile.Instruction) {
	if ctx.DebugLevel < 1 || ctx.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("method", frame.Method),
		zap.Int("pc", frame.PC),
		zap.String("instruction", instructionName(instr)),
	}
	if ctx.DebugLevel >= 2 {
		fields = append(fields, zap.String("stack", dumpStack(ctx.Strings, frame)))
	}
	ctx.Logger.Debug("step", fields...)
}

func dumpStack(strings *stringpool.Pool, frame *Frame) string {
	out := "["
	for i := 0; i < frame.SP; i++ {
		if i > 0 {
			out += ", "
		}
		out += itemString(strings, frame.Stack[i])
	}
	return out + "]"
}

// instructionName renders an instruction's Go type name for debug
// tracing (spec §6 "--debug 1"): the decoded tagged union already
// names the instruction family, so there is no separate opcode-to-name
// table to maintain.
func instructionName(instr classfile.Instruction) string {
	switch instr.(type) {
	case classfile.NoOp:
		return "noop"
	case classfile.PushNull:
		return "aconst_null"
	case classfile.PushInt:
		return "push_int"
	case classfile.PushLong:
		return "push_long"
	case classfile.LoadConst:
		return "ldc"
	case classfile.LoadConstWide:
		return "ldc2_w"
	case classfile.LoadLocal:
		return "load_local"
	case classfile.StoreLocal:
		return "store_local"
	case classfile.IncLocal:
		return "iinc"
	case classfile.ArrayLoad:
		return "array_load"
	case classfile.ArrayStore:
		return "array_store"
	case classfile.NewArray:
		return "newarray"
	case classfile.ANewArray:
		return "anewarray"
	case classfile.MultiANewArray:
		return "multianewarray"
	case classfile.Pop:
		return "pop"
	case classfile.Dup:
		return "dup"
	case classfile.BinOp:
		return "binop"
	case classfile.LCmp:
		return "lcmp"
	case classfile.IfZero:
		return "if<cond>"
	case classfile.IfICmp:
		return "if_icmp<cond>"
	case classfile.Goto:
		return "goto"
	case classfile.LookupSwitch:
		return "lookupswitch"
	case classfile.Return:
		return "return"
	case classfile.GetStatic:
		return "getstatic"
	case classfile.PutStatic:
		return "putstatic"
	case classfile.GetField:
		return "getfield"
	case classfile.PutField:
		return "putfield"
	case classfile.InvokeVirtual:
		return "invokevirtual"
	case classfile.InvokeSpecial:
		return "invokespecial"
	case classfile.InvokeStatic:
		return "invokestatic"
	case classfile.New:
		return "new"
	default:
		return "unknown"
	}
}

func itemString(strings *stringpool.Pool, it Item) string {
	switch it.Kind {
	case ItemInt:
		return "int"
	case ItemLongHalf:
		return "long-half"
	case ItemFloat:
		return "float"
	case ItemDoubleHalf:
		return "double-half"
	case ItemBoolean:
		return "bool"
	case ItemString:
		if text, err := strings.Resolve(it.ID); err == nil {
			return "string(" + text + ")"
		}
		return "string"
	case ItemClassref:
		return "classref"
	case ItemFieldref:
		return "fieldref"
	case ItemObjectref:
		return "objectref"
	case ItemArrayref:
		return "arrayref"
	default:
		return "null"
	}
}
