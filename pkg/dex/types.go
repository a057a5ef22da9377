package dex

import (
	"slices"
	"strings"
)

// ---------------------------------------------------------------------------
// Class definition model: the in-memory form of one container entry
// ---------------------------------------------------------------------------

// AccessFlags holds the access and property flags of a class, field, or
// method. The bit assignments match the dex access_flags encoding.
type AccessFlags uint32

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSynchronized AccessFlags = 0x0020
	AccBridge       AccessFlags = 0x0040
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccSynthetic    AccessFlags = 0x1000
	AccConstructor  AccessFlags = 0x10000
)

var accessFlagNames = []struct {
	flag AccessFlags
	name string
}{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSynchronized, "synchronized"},
	{AccBridge, "bridge"},
	{AccVarargs, "varargs"},
	{AccNative, "native"},
	{AccInterface, "interface"},
	{AccAbstract, "abstract"},
	{AccSynthetic, "synthetic"},
	{AccConstructor, "constructor"},
}

// String returns a space-separated list of flag names, e.g. "public static".
func (f AccessFlags) String() string {
	if f == 0 {
		return ""
	}
	var parts []string
	for _, entry := range accessFlagNames {
		if f&entry.flag != 0 {
			parts = append(parts, entry.name)
		}
	}
	return strings.Join(parts, " ")
}

// Has returns true if all bits of mask are set.
func (f AccessFlags) Has(mask AccessFlags) bool {
	return f&mask == mask
}

// FlagFromName resolves a single flag name, e.g. "static", back to its bit.
func FlagFromName(name string) (AccessFlags, bool) {
	for _, entry := range accessFlagNames {
		if entry.name == name {
			return entry.flag, true
		}
	}
	return 0, false
}

// Instruction is a single decoded bytecode instruction: an opcode plus its
// register/pool-index operands.
type Instruction struct {
	Op       Opcode   `cbor:"1,keyasint"`
	Operands []uint32 `cbor:"2,keyasint,omitempty"`
}

// Field describes one field of a class definition.
type Field struct {
	Name  string      `cbor:"1,keyasint"`
	Type  string      `cbor:"2,keyasint"`
	Flags AccessFlags `cbor:"3,keyasint"`
}

// Method describes one method of a class definition: its signature and its
// decoded instruction list.
type Method struct {
	Name       string        `cbor:"1,keyasint"`
	Flags      AccessFlags   `cbor:"2,keyasint"`
	ReturnType string        `cbor:"3,keyasint"`
	Params     []string      `cbor:"4,keyasint,omitempty"`
	Code       []Instruction `cbor:"5,keyasint,omitempty"`
}

// Descriptor returns the dex-style method descriptor, e.g.
// "(Ljava/lang/String;I)V".
func (m *Method) Descriptor() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range m.Params {
		sb.WriteString(p)
	}
	sb.WriteByte(')')
	sb.WriteString(m.ReturnType)
	return sb.String()
}

// Opcodes returns the opcode sequence of the method's code, without
// operands. Signature pattern matching runs over this view.
func (m *Method) Opcodes() []Opcode {
	ops := make([]Opcode, len(m.Code))
	for i, ins := range m.Code {
		ops[i] = ins.Op
	}
	return ops
}

// ClassDef is one immutable class definition as loaded from a container.
// The type name is the identity key: unique within a class pool.
type ClassDef struct {
	Type       string      `cbor:"1,keyasint"`
	Flags      AccessFlags `cbor:"2,keyasint"`
	Superclass string      `cbor:"3,keyasint,omitempty"`
	Interfaces []string    `cbor:"4,keyasint,omitempty"`
	Fields     []Field     `cbor:"5,keyasint,omitempty"`
	Methods    []Method    `cbor:"6,keyasint,omitempty"`
	SourceFile string      `cbor:"7,keyasint,omitempty"`
}

// Clone returns a deep copy of the class definition. Mutating the copy never
// affects the original; the copy-on-write proxy layer depends on this.
func (c *ClassDef) Clone() *ClassDef {
	out := &ClassDef{
		Type:       c.Type,
		Flags:      c.Flags,
		Superclass: c.Superclass,
		Interfaces: slices.Clone(c.Interfaces),
		Fields:     slices.Clone(c.Fields),
		SourceFile: c.SourceFile,
	}
	out.Methods = make([]Method, len(c.Methods))
	for i, m := range c.Methods {
		cm := m
		cm.Params = slices.Clone(m.Params)
		cm.Code = make([]Instruction, len(m.Code))
		for j, ins := range m.Code {
			ci := ins
			ci.Operands = slices.Clone(ins.Operands)
			cm.Code[j] = ci
		}
		out.Methods[i] = cm
	}
	return out
}

// Equal reports whether two class definitions are structurally identical.
func (c *ClassDef) Equal(other *ClassDef) bool {
	if c.Type != other.Type || c.Flags != other.Flags ||
		c.Superclass != other.Superclass || c.SourceFile != other.SourceFile {
		return false
	}
	if !slices.Equal(c.Interfaces, other.Interfaces) || !slices.Equal(c.Fields, other.Fields) {
		return false
	}
	if len(c.Methods) != len(other.Methods) {
		return false
	}
	for i := range c.Methods {
		a, b := &c.Methods[i], &other.Methods[i]
		if a.Name != b.Name || a.Flags != b.Flags || a.ReturnType != b.ReturnType {
			return false
		}
		if !slices.Equal(a.Params, b.Params) {
			return false
		}
		if len(a.Code) != len(b.Code) {
			return false
		}
		for j := range a.Code {
			if a.Code[j].Op != b.Code[j].Op || !slices.Equal(a.Code[j].Operands, b.Code[j].Operands) {
				return false
			}
		}
	}
	return true
}

// MethodIndex returns the index of the first method with the given name and
// descriptor, or -1.
func (c *ClassDef) MethodIndex(name, descriptor string) int {
	for i := range c.Methods {
		m := &c.Methods[i]
		if m.Name == name && m.Descriptor() == descriptor {
			return i
		}
	}
	return -1
}

// FieldIndex returns the index of the first field with the given name, or -1.
func (c *ClassDef) FieldIndex(name string) int {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return i
		}
	}
	return -1
}
