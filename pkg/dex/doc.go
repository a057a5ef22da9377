// Package dex implements the bytecode container format consumed by the
// patching engine: an application package of one or more "DEXC" container
// files, each holding an ordered class table plus the instruction-set
// context needed to interpret it.
//
// The on-disk format is a fixed binary preamble (magic, version, opcode-set
// id, class count, body checksum) followed by a canonical-CBOR class table.
// Canonical encoding keeps serialization deterministic: a class that was
// never touched by a patch round-trips to byte-identical output.
//
// Components:
//
//   - Opcodes: a dex-style register-machine opcode table with mnemonics and
//     operand metadata, used for disassembly and for compiling declarative
//     signature patterns from mnemonic form
//
//   - ClassDef / Method / Field / Instruction: the decoded class model.
//     ClassDef values are treated as immutable by the patcher; Clone gives
//     the copy-on-write layer its deep copies
//
//   - Container / Package: one decoded bytecode file, and a named set of
//     them forming a multi-file application package
package dex
