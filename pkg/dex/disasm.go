package dex

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of a method's code.
func (m *Method) Disassemble() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("; %s %s%s\n", m.Flags, m.Name, m.Descriptor()))
	for i, ins := range m.Code {
		sb.WriteString(fmt.Sprintf("%4d: %s", i, ins.Op))
		for j, operand := range ins.Operands {
			if j > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(fmt.Sprintf(" v%d", operand))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Disassemble returns a human-readable listing of the whole class: header,
// fields, then every method's code.
func (c *ClassDef) Disassemble() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("; === %s ===\n", c.Type))
	if s := c.Flags.String(); s != "" {
		sb.WriteString(fmt.Sprintf("; Flags: %s\n", s))
	}
	if c.Superclass != "" {
		sb.WriteString(fmt.Sprintf("; Super: %s\n", c.Superclass))
	}
	if len(c.Interfaces) > 0 {
		sb.WriteString(fmt.Sprintf("; Implements: %s\n", strings.Join(c.Interfaces, ", ")))
	}

	if len(c.Fields) > 0 {
		sb.WriteString("\n; Fields:\n")
		for i, f := range c.Fields {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s %s %s\n", i, f.Flags, f.Type, f.Name))
		}
	}

	for i := range c.Methods {
		sb.WriteString("\n")
		sb.WriteString(c.Methods[i].Disassemble())
	}
	return sb.String()
}
