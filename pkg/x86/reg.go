// Package x86 is the Emitter and Register Descriptor of spec.md §4.5: it
// lowers annotated IR into NASM assembler text via a greedy, block-local
// scheme. The register set, the descriptor's value/reference bookkeeping,
// and the per-opcode emission rules are grounded directly on the reference
// generator's gen-x86.cpp (reg_t, reg_d[NUM_reg], str_reg/str_oprand, and
// the load/store/ass/binary/call/div/dref/lbl/mod/mul/ref/ret/sz/unary
// family of emission functions); the "compute a summary struct once, then
// consult it" shape of Frame is adapted from the reference callee-save
// accounting package.
package x86

import "github.com/raymyers/mplc-backend/pkg/target"

// Reg is one physical register. The low eight are available in both
// modes; R8..R15 are long-mode-only extended registers.
type Reg int

const (
	RegA Reg = iota
	RegB
	RegC
	RegD
	RegSI
	RegDI
	RegBP
	RegSP
	RegR8
	RegR9
	RegR10
	RegR11
	RegR12
	RegR13
	RegR14
	RegR15

	numRegs
)

// regNames[reg][sizeClass]; sizeClass 0=byte,1=word,2=dword,3=qword.
var regNames = [numRegs][4]string{
	RegA:   {"al", "ax", "eax", "rax"},
	RegB:   {"bl", "bx", "ebx", "rbx"},
	RegC:   {"cl", "cx", "ecx", "rcx"},
	RegD:   {"dl", "dx", "edx", "rdx"},
	RegSI:  {"sil", "si", "esi", "rsi"},
	RegDI:  {"dil", "di", "edi", "rdi"},
	RegBP:  {"bpl", "bp", "ebp", "rbp"},
	RegSP:  {"spl", "sp", "esp", "rsp"},
	RegR8:  {"r8b", "r8w", "r8d", "r8"},
	RegR9:  {"r9b", "r9w", "r9d", "r9"},
	RegR10: {"r10b", "r10w", "r10d", "r10"},
	RegR11: {"r11b", "r11w", "r11d", "r11"},
	RegR12: {"r12b", "r12w", "r12d", "r12"},
	RegR13: {"r13b", "r13w", "r13d", "r13"},
	RegR14: {"r14b", "r14w", "r14d", "r14"},
	RegR15: {"r15b", "r15w", "r15d", "r15"},
}

// sizeClass converts a byte count to the regNames column index, defaulting
// to qword for anything larger than 4 — only meaningful in long mode.
func sizeClass(bytes uint64) int {
	switch {
	case bytes == 1:
		return 0
	case bytes == 2:
		return 1
	case bytes == 4:
		return 2
	default:
		return 3
	}
}

// Name returns reg's assembler name at the given byte width.
func (reg Reg) Name(bytes uint64) string {
	return regNames[reg][sizeClass(bytes)]
}

// generalPurpose lists the registers the register descriptor may hand out
// to hold IR values; BP and SP are reserved for frame management.
func generalPurpose(mode target.Mode) []Reg {
	regs := []Reg{RegA, RegB, RegC, RegD, RegSI, RegDI}
	if mode == target.ModeLong {
		regs = append(regs, RegR8, RegR9, RegR10, RegR11, RegR12, RegR13, RegR14, RegR15)
	}
	return regs
}
