package dex

import "fmt"

// Opcode represents a single bytecode instruction of the container's
// register-based instruction set. Opcodes are organized into ranges by
// category, following the layout of the dex opcode table.
type Opcode byte

const (
	// ========================================================================
	// Nop and register moves (0x00-0x0D)
	// ========================================================================

	OpNop           Opcode = 0x00 // No operation
	OpMove          Opcode = 0x01 // Move between registers: OpMove <dst> <src>
	OpMoveWide      Opcode = 0x04 // Move a register pair
	OpMoveObject    Opcode = 0x07 // Move an object reference
	OpMoveResult    Opcode = 0x0A // Move invoke result into a register
	OpMoveException Opcode = 0x0D // Move caught exception into a register

	// ========================================================================
	// Returns (0x0E-0x11)
	// ========================================================================

	OpReturnVoid   Opcode = 0x0E // Return from a void method
	OpReturn       Opcode = 0x0F // Return a single-width value
	OpReturnWide   Opcode = 0x10 // Return a register pair
	OpReturnObject Opcode = 0x11 // Return an object reference

	// ========================================================================
	// Constants (0x12-0x1C)
	// ========================================================================

	OpConst4      Opcode = 0x12 // Load a 4-bit literal
	OpConst16     Opcode = 0x13 // Load a 16-bit literal
	OpConst       Opcode = 0x14 // Load a 32-bit literal
	OpConstWide   Opcode = 0x16 // Load a 64-bit literal
	OpConstString Opcode = 0x1A // Load a string-pool reference
	OpConstClass  Opcode = 0x1C // Load a class reference

	// ========================================================================
	// Type checks and allocation (0x1F-0x23)
	// ========================================================================

	OpCheckCast   Opcode = 0x1F // Throw unless register holds the given type
	OpInstanceOf  Opcode = 0x20 // Test register against a type
	OpNewInstance Opcode = 0x22 // Allocate an instance of a class
	OpNewArray    Opcode = 0x23 // Allocate an array

	// ========================================================================
	// Unconditional branches (0x28-0x2A)
	// ========================================================================

	OpGoto   Opcode = 0x28 // Branch: OpGoto <offset:i8>
	OpGoto16 Opcode = 0x29 // Branch: OpGoto16 <offset:i16>
	OpGoto32 Opcode = 0x2A // Branch: OpGoto32 <offset:i32>

	// ========================================================================
	// Conditional branches (0x32-0x3D)
	// ========================================================================

	OpIfEq  Opcode = 0x32 // Branch if two registers are equal
	OpIfNe  Opcode = 0x33 // Branch if two registers differ
	OpIfLt  Opcode = 0x34 // Branch if a < b
	OpIfGe  Opcode = 0x35 // Branch if a >= b
	OpIfGt  Opcode = 0x36 // Branch if a > b
	OpIfLe  Opcode = 0x37 // Branch if a <= b
	OpIfEqz Opcode = 0x38 // Branch if register == 0
	OpIfNez Opcode = 0x39 // Branch if register != 0
	OpIfLtz Opcode = 0x3A // Branch if register < 0
	OpIfGez Opcode = 0x3B // Branch if register >= 0
	OpIfGtz Opcode = 0x3C // Branch if register > 0
	OpIfLez Opcode = 0x3D // Branch if register <= 0

	// ========================================================================
	// Instance and static field access (0x52-0x67)
	// ========================================================================

	OpIGet       Opcode = 0x52 // Read an instance field
	OpIGetObject Opcode = 0x54 // Read an object-typed instance field
	OpIPut       Opcode = 0x59 // Write an instance field
	OpIPutObject Opcode = 0x5B // Write an object-typed instance field
	OpSGet       Opcode = 0x60 // Read a static field
	OpSGetObject Opcode = 0x62 // Read an object-typed static field
	OpSPut       Opcode = 0x67 // Write a static field

	// ========================================================================
	// Method invocation (0x6E-0x72)
	// ========================================================================

	OpInvokeVirtual   Opcode = 0x6E // Virtual dispatch: OpInvokeVirtual <method:u16> <args...>
	OpInvokeSuper     Opcode = 0x6F // Superclass dispatch
	OpInvokeDirect    Opcode = 0x70 // Non-virtual instance call (constructors, private)
	OpInvokeStatic    Opcode = 0x71 // Static call
	OpInvokeInterface Opcode = 0x72 // Interface dispatch

	// ========================================================================
	// Integer arithmetic (0x90-0x94)
	// ========================================================================

	OpAddInt Opcode = 0x90 // dst = a + b
	OpSubInt Opcode = 0x91 // dst = a - b
	OpMulInt Opcode = 0x92 // dst = a * b
	OpDivInt Opcode = 0x93 // dst = a / b
	OpRemInt Opcode = 0x94 // dst = a % b
)

// OpcodeInfo provides metadata about each opcode for disassembly,
// validation, and signature-pattern compilation.
type OpcodeInfo struct {
	Mnemonic string // dex-style mnemonic, e.g. "invoke-virtual"
	Operands int    // Number of encoded operands
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Nop and moves
	OpNop:           {"nop", 0},
	OpMove:          {"move", 2},
	OpMoveWide:      {"move-wide", 2},
	OpMoveObject:    {"move-object", 2},
	OpMoveResult:    {"move-result", 1},
	OpMoveException: {"move-exception", 1},

	// Returns
	OpReturnVoid:   {"return-void", 0},
	OpReturn:       {"return", 1},
	OpReturnWide:   {"return-wide", 1},
	OpReturnObject: {"return-object", 1},

	// Constants
	OpConst4:      {"const/4", 2},
	OpConst16:     {"const/16", 2},
	OpConst:       {"const", 2},
	OpConstWide:   {"const-wide", 2},
	OpConstString: {"const-string", 2},
	OpConstClass:  {"const-class", 2},

	// Type checks and allocation
	OpCheckCast:   {"check-cast", 2},
	OpInstanceOf:  {"instance-of", 3},
	OpNewInstance: {"new-instance", 2},
	OpNewArray:    {"new-array", 3},

	// Unconditional branches
	OpGoto:   {"goto", 1},
	OpGoto16: {"goto/16", 1},
	OpGoto32: {"goto/32", 1},

	// Conditional branches
	OpIfEq:  {"if-eq", 3},
	OpIfNe:  {"if-ne", 3},
	OpIfLt:  {"if-lt", 3},
	OpIfGe:  {"if-ge", 3},
	OpIfGt:  {"if-gt", 3},
	OpIfLe:  {"if-le", 3},
	OpIfEqz: {"if-eqz", 2},
	OpIfNez: {"if-nez", 2},
	OpIfLtz: {"if-ltz", 2},
	OpIfGez: {"if-gez", 2},
	OpIfGtz: {"if-gtz", 2},
	OpIfLez: {"if-lez", 2},

	// Field access
	OpIGet:       {"iget", 3},
	OpIGetObject: {"iget-object", 3},
	OpIPut:       {"iput", 3},
	OpIPutObject: {"iput-object", 3},
	OpSGet:       {"sget", 2},
	OpSGetObject: {"sget-object", 2},
	OpSPut:       {"sput", 2},

	// Invocation
	OpInvokeVirtual:   {"invoke-virtual", 2},
	OpInvokeSuper:     {"invoke-super", 2},
	OpInvokeDirect:    {"invoke-direct", 2},
	OpInvokeStatic:    {"invoke-static", 2},
	OpInvokeInterface: {"invoke-interface", 2},

	// Arithmetic
	OpAddInt: {"add-int", 3},
	OpSubInt: {"sub-int", 3},
	OpMulInt: {"mul-int", 3},
	OpDivInt: {"div-int", 3},
	OpRemInt: {"rem-int", 3},
}

// mnemonicTable is the reverse of opcodeInfoTable, built at init time.
var mnemonicTable = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeInfoTable))
	for op, info := range opcodeInfoTable {
		m[info.Mnemonic] = op
	}
	return m
}()

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with an "unknown" mnemonic if the opcode is not
// part of the table.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Mnemonic: fmt.Sprintf("unknown(0x%02X)", byte(op))}
}

// String returns the dex-style mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Mnemonic
}

// FromMnemonic resolves a dex-style mnemonic back to its opcode.
func FromMnemonic(m string) (Opcode, bool) {
	op, ok := mnemonicTable[m]
	return op, ok
}

// IsInvoke returns true if this opcode is a method invocation.
func (op Opcode) IsInvoke() bool {
	return op >= OpInvokeVirtual && op <= OpInvokeInterface
}

// IsReturn returns true if this opcode terminates a method.
func (op Opcode) IsReturn() bool {
	return op >= OpReturnVoid && op <= OpReturnObject
}

// IsBranch returns true if this opcode transfers control.
func (op Opcode) IsBranch() bool {
	return (op >= OpGoto && op <= OpGoto32) || (op >= OpIfEq && op <= OpIfLez)
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
