package dex

import (
	"strings"
	"testing"
)

func TestAccessFlagsString(t *testing.T) {
	f := AccPublic | AccStatic | AccFinal
	if got := f.String(); got != "public static final" {
		t.Errorf("String() = %q, want %q", got, "public static final")
	}
	if got := AccessFlags(0).String(); got != "" {
		t.Errorf("String() of zero flags = %q, want empty", got)
	}
}

func TestAccessFlagsHas(t *testing.T) {
	f := AccPublic | AccStatic
	if !f.Has(AccPublic) {
		t.Error("Has(AccPublic) = false")
	}
	if !f.Has(AccPublic | AccStatic) {
		t.Error("Has(AccPublic|AccStatic) = false")
	}
	if f.Has(AccFinal) {
		t.Error("Has(AccFinal) = true")
	}
}

func TestMethodDescriptor(t *testing.T) {
	m := &Method{
		Name:       "handle",
		ReturnType: "V",
		Params:     []string{"Ljava/lang/String;", "I"},
	}
	want := "(Ljava/lang/String;I)V"
	if got := m.Descriptor(); got != want {
		t.Errorf("Descriptor() = %q, want %q", got, want)
	}

	empty := &Method{Name: "run", ReturnType: "Z"}
	if got := empty.Descriptor(); got != "()Z" {
		t.Errorf("Descriptor() = %q, want ()Z", got)
	}
}

func TestClassDefCloneIsDeep(t *testing.T) {
	orig := &ClassDef{
		Type:       "Lcom/example/Gamma;",
		Interfaces: []string{"Ljava/lang/Runnable;"},
		Fields:     []Field{{Name: "state", Type: "I"}},
		Methods: []Method{
			{
				Name:       "run",
				ReturnType: "V",
				Params:     []string{"I"},
				Code: []Instruction{
					{Op: OpConst4, Operands: []uint32{0, 1}},
					{Op: OpReturnVoid},
				},
			},
		},
	}

	clone := orig.Clone()
	clone.Fields[0].Name = "renamed"
	clone.Methods[0].Code[0].Op = OpNop
	clone.Methods[0].Code[0].Operands[1] = 99
	clone.Methods[0].Params[0] = "J"
	clone.Interfaces[0] = "Lother;"

	if orig.Fields[0].Name != "state" {
		t.Error("clone mutation leaked into original field")
	}
	if orig.Methods[0].Code[0].Op != OpConst4 {
		t.Error("clone mutation leaked into original opcode")
	}
	if orig.Methods[0].Code[0].Operands[1] != 1 {
		t.Error("clone mutation leaked into original operand")
	}
	if orig.Methods[0].Params[0] != "I" {
		t.Error("clone mutation leaked into original params")
	}
	if orig.Interfaces[0] != "Ljava/lang/Runnable;" {
		t.Error("clone mutation leaked into original interfaces")
	}
}

func TestClassDefEqual(t *testing.T) {
	orig := &ClassDef{
		Type:   "Lcom/example/Gamma;",
		Fields: []Field{{Name: "state", Type: "I"}},
		Methods: []Method{
			{
				Name:       "run",
				ReturnType: "V",
				Code: []Instruction{
					{Op: OpConst4, Operands: []uint32{0, 1}},
					{Op: OpReturnVoid},
				},
			},
		},
	}

	clone := orig.Clone()
	if !orig.Equal(clone) {
		t.Error("Equal() = false for an untouched clone")
	}

	clone.Methods[0].Code[0].Operands[1] = 2
	if orig.Equal(clone) {
		t.Error("Equal() = true after operand change")
	}

	clone = orig.Clone()
	clone.Fields[0].Name = "renamed"
	if orig.Equal(clone) {
		t.Error("Equal() = true after field rename")
	}
}

func TestMethodOpcodes(t *testing.T) {
	m := &Method{Code: []Instruction{
		{Op: OpConstString},
		{Op: OpInvokeVirtual},
		{Op: OpReturnVoid},
	}}
	ops := m.Opcodes()
	if len(ops) != 3 || ops[1] != OpInvokeVirtual {
		t.Errorf("Opcodes() = %v, want [const-string invoke-virtual return-void]", ops)
	}
}

func TestClassDefIndexLookups(t *testing.T) {
	c := &ClassDef{
		Fields: []Field{{Name: "a"}, {Name: "b"}},
		Methods: []Method{
			{Name: "run", ReturnType: "V"},
			{Name: "run", ReturnType: "I"},
		},
	}
	if i := c.FieldIndex("b"); i != 1 {
		t.Errorf("FieldIndex(b) = %d, want 1", i)
	}
	if i := c.FieldIndex("z"); i != -1 {
		t.Errorf("FieldIndex(z) = %d, want -1", i)
	}
	if i := c.MethodIndex("run", "()I"); i != 1 {
		t.Errorf("MethodIndex(run, ()I) = %d, want 1", i)
	}
	if i := c.MethodIndex("run", "()Z"); i != -1 {
		t.Errorf("MethodIndex(run, ()Z) = %d, want -1", i)
	}
}

func TestDisassemble(t *testing.T) {
	c := &ClassDef{
		Type:       "Lcom/example/Alpha;",
		Flags:      AccPublic,
		Superclass: "Ljava/lang/Object;",
		Fields:     []Field{{Name: "count", Type: "I", Flags: AccPrivate}},
		Methods: []Method{
			{
				Name:       "run",
				Flags:      AccPublic,
				ReturnType: "V",
				Code: []Instruction{
					{Op: OpConst16, Operands: []uint32{0, 42}},
					{Op: OpReturnVoid},
				},
			},
		},
	}

	out := c.Disassemble()
	for _, want := range []string{"Lcom/example/Alpha;", "const/16", "return-void", "count"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}
