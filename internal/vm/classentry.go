package vm

import "jvmlet/internal/classfile"

// ClassEntry is the tagged union the ClassMap holds: a class loaded
// from a .class file, or one registered in-process at bootstrap (spec
// §3, §4.7). Exactly one of File/Builtin is set.
type ClassEntry struct {
	NameID int

	File    *classfile.ClassFile // set for Custom
	Builtin *BuiltinClass        // set for BuiltIn

	ClinitRan bool
}

func (c *ClassEntry) IsBuiltin() bool { return c.Builtin != nil }
