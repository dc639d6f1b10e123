package vm

import (
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"jvmlet/internal/classfile"
	"jvmlet/internal/stringpool"
	"jvmlet/internal/vmerr"
)

// Context is the Execution Context (spec §2, §3): it owns the ClassMap,
// the heap maps, a reference to the directory used to resolve additional
// classes by name, and the host output channel built-in println writes to.
type Context struct {
	Strings *stringpool.Pool
	Heap    *Heap
	Classes map[int]*ClassEntry
	RootDir string
	Output  io.Writer

	DebugLevel int
	Logger     *zap.Logger
}

// NewContext constructs a context rooted at dir, seeded with the
// built-in classes (spec §2 "seeds the class registry with built-ins").
func NewContext(dir string, strings *stringpool.Pool, output io.Writer, debugLevel int, logger *zap.Logger) *Context {
	return &Context{
		Strings:    strings,
		Heap:       NewHeap(),
		Classes:    seedBuiltins(strings),
		RootDir:    dir,
		Output:     output,
		DebugLevel: debugLevel,
		Logger:     logger,
	}
}

// LoadClass returns the ClassMap entry for className, loading and
// registering it (and running its <clinit>, if present) on first
// reference (spec §4.6). Loading class C twice returns the same entry
// and never re-runs <clinit> (spec §8 "Lazy-loading idempotence").
func (ctx *Context) LoadClass(className string) (*ClassEntry, error) {
	nameID := ctx.Strings.Intern(className)
	if entry, ok := ctx.Classes[nameID]; ok {
		// A class registered without its <clinit> (the entry class, see
		// loadEntryClass) gets it run on its first reference from here.
		if err := ctx.runClinitIfPresent(entry); err != nil {
			return nil, err
		}
		return entry, nil
	}

	path := filepath.Join(ctx.RootDir, className+".class")
	cf, err := classfile.ParseFile(path, ctx.Strings)
	if err != nil {
		return nil, vmerr.ResolutionWrap(err, "loading class "+className)
	}

	entry := &ClassEntry{NameID: nameID, File: cf}
	ctx.Classes[nameID] = entry
	ctx.registerStaticDefaults(entry)

	if err := ctx.runClinitIfPresent(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// registerStaticDefaults seeds the static table with each declared
// static field's default value (spec §4.6).
func (ctx *Context) registerStaticDefaults(entry *ClassEntry) {
	if entry.File == nil {
		return
	}
	for _, field := range entry.File.Fields {
		if !field.IsStatic() {
			continue
		}
		descID := field.DescriptorID
		desc, err := ctx.Strings.Resolve(descID)
		if err != nil {
			continue
		}
		ctx.Heap.EnsureStaticDefault(entry.NameID, field.NameID, desc)
	}
}

func (ctx *Context) runClinitIfPresent(entry *ClassEntry) error {
	if entry.ClinitRan || entry.File == nil {
		return nil
	}
	entry.ClinitRan = true

	clinitNameID := ctx.Strings.Intern("<clinit>")
	voidDescID := ctx.Strings.Intern("()V")
	method := entry.File.FindMethod(clinitNameID, voidDescID)
	if method == nil || method.Code == nil {
		return nil
	}
	frame := NewFrame(method.Code.MaxLocals, method.Code.MaxStack, method.Code.Instructions, entry, "<clinit>")
	_, err := ctx.runFrame(frame)
	return err
}

// className resolves a ClassEntry's interned name back to text, for
// diagnostics and builtin dispatch.
func (ctx *Context) className(entry *ClassEntry) string {
	name, err := ctx.Strings.Resolve(entry.NameID)
	if err != nil {
		return "?"
	}
	return name
}
