package vm

import (
	"fmt"
	"strconv"

	"jvmlet/internal/stringpool"
	"jvmlet/internal/vmerr"
)

// BuiltinTag names the semantic behavior of one built-in method (spec §4.7).
type BuiltinTag int

const (
	TagPrintln BuiltinTag = iota
	TagObjectInit
	TagSystemInit
	TagIntegerToString
)

// BuiltinMethod is one registered built-in method: its semantic tag and
// descriptor (used to compute parameter_length).
type BuiltinMethod struct {
	Tag        BuiltinTag
	Descriptor string
	Static     bool
}

// BuiltinClass is an in-process class registered at context construction
// (spec §4.7), keyed by "name:descriptor" within the class.
type BuiltinClass struct {
	Name    string
	Methods map[string]*BuiltinMethod
}

func builtinKey(name, descriptor string) string { return name + ":" + descriptor }

// seedBuiltins interns the four built-in classes' names and methods and
// returns ClassMap entries ready to insert (spec §4.7: PrintStream.println,
// Object.<init>, System.<init>, Integer.toString).
func seedBuiltins(strings *stringpool.Pool) map[int]*ClassEntry {
	out := make(map[int]*ClassEntry)

	printStream := &BuiltinClass{Name: "java/io/PrintStream", Methods: map[string]*BuiltinMethod{}}
	printStream.Methods[builtinKey("println", "(Ljava/lang/String;)V")] = &BuiltinMethod{Tag: TagPrintln, Descriptor: "(Ljava/lang/String;)V"}
	printStream.Methods[builtinKey("println", "(I)V")] = &BuiltinMethod{Tag: TagPrintln, Descriptor: "(I)V"}
	printStream.Methods[builtinKey("println", "(J)V")] = &BuiltinMethod{Tag: TagPrintln, Descriptor: "(J)V"}
	printStream.Methods[builtinKey("println", "(D)V")] = &BuiltinMethod{Tag: TagPrintln, Descriptor: "(D)V"}
	printStream.Methods[builtinKey("println", "(Z)V")] = &BuiltinMethod{Tag: TagPrintln, Descriptor: "(Z)V"}

	object := &BuiltinClass{Name: "java/lang/Object", Methods: map[string]*BuiltinMethod{
		builtinKey("<init>", "()V"): {Tag: TagObjectInit, Descriptor: "()V"},
	}}

	system := &BuiltinClass{Name: "java/lang/System", Methods: map[string]*BuiltinMethod{
		builtinKey("<init>", "()V"): {Tag: TagSystemInit, Descriptor: "()V"},
	}}

	integer := &BuiltinClass{Name: "java/lang/Integer", Methods: map[string]*BuiltinMethod{
		builtinKey("toString", "(I)Ljava/lang/String;"): {Tag: TagIntegerToString, Descriptor: "(I)Ljava/lang/String;", Static: true},
	}}

	for _, bc := range []*BuiltinClass{printStream, object, system, integer} {
		id := strings.Intern(bc.Name)
		out[id] = &ClassEntry{NameID: id, Builtin: bc, ClinitRan: true}
	}
	return out
}

// lookupBuiltinMethod finds the registered method by its exact
// name:descriptor key (println's several primitive overloads are each
// registered under their own exact descriptor).
func (bc *BuiltinClass) lookupBuiltinMethod(name, descriptor string) (*BuiltinMethod, bool) {
	if m, ok := bc.Methods[builtinKey(name, descriptor)]; ok {
		return m, true
	}
	return nil, false
}

// invokeBuiltin pops the call's arguments off callerFrame per
// parameter_length(descriptor) and performs the tagged behavior (spec §4.7).
func invokeBuiltin(ctx *Context, callerFrame *Frame, m *BuiltinMethod, isStatic bool) error {
	sig, err := parseMethodDescriptor(m.Descriptor)
	if err != nil {
		return err
	}

	var dispatchErr error
	switch m.Tag {
	case TagPrintln:
		dispatchErr = execPrintln(ctx, callerFrame, sig)

	case TagObjectInit, TagSystemInit:
		dispatchErr = nil

	case TagIntegerToString:
		v := callerFrame.Pop()
		if v.Kind != ItemInt {
			return vmerr.State("Integer.toString", "expected Int argument, got kind %d", v.Kind)
		}
		id := ctx.Strings.Intern(strconv.Itoa(int(v.I32)))
		callerFrame.Push(StringItem(id))
		return nil

	default:
		return vmerr.Unsupported("builtin dispatch", "unknown built-in tag %d", m.Tag)
	}
	if dispatchErr != nil {
		return dispatchErr
	}

	// The receiver sits below the declared parameters on the operand
	// stack; the tag-specific case above has already consumed every
	// parameter off the top, so the receiver is what remains to discard.
	// None of the built-in bodies ever dereference it.
	if !isStatic {
		callerFrame.Pop()
	}
	return nil
}

func execPrintln(ctx *Context, f *Frame, sig methodSignature) error {
	if len(sig.Params) != 1 {
		return vmerr.Unsupported("println", "unsupported println arity %d", len(sig.Params))
	}
	switch sig.Params[0] {
	case kindRef:
		arg := f.Pop()
		text, err := resolveDisplayString(ctx, arg)
		if err != nil {
			return err
		}
		return writeLine(ctx, text)
	case kindInt:
		arg := f.Pop()
		return writeLine(ctx, strconv.Itoa(int(arg.I32)))
	case kindLong:
		v := f.PopLong()
		return writeLine(ctx, strconv.FormatInt(v, 10))
	case kindDouble:
		v := f.PopDouble()
		return writeLine(ctx, strconv.FormatFloat(v, 'g', -1, 64))
	case kindBoolean:
		arg := f.Pop()
		return writeLine(ctx, strconv.FormatBool(arg.Bool))
	default:
		return vmerr.Unsupported("println", "unsupported println parameter kind %d", sig.Params[0])
	}
}

// resolveDisplayString turns a reference-kind println argument into its
// printed text: a String item resolves directly through the string
// pool and a Null item prints "null"; any other kind is an
// UnsupportedError, since the interpreter implements no general
// toString dispatch beyond Integer's.
func resolveDisplayString(ctx *Context, item Item) (string, error) {
	switch item.Kind {
	case ItemString:
		return ctx.Strings.Resolve(item.ID)
	case ItemNull:
		return "null", nil
	default:
		return "", vmerr.Unsupported("println", "no display conversion for item kind %d", item.Kind)
	}
}

func writeLine(ctx *Context, text string) error {
	if _, err := fmt.Fprintln(ctx.Output, text); err != nil {
		return vmerr.ResolutionWrap(err, "writing to host output")
	}
	return nil
}
