package asm

import "fmt"

// Op identifies an instruction variant for allow-list checks. Policies are
// expressed over variants rather than raw opcode bytes so that a site's
// allow-list reads as intent ("no absolute stores from this hook") instead
// of a byte soup.
type Op uint8

const (
	OpRaw Op = iota
	OpNop
	OpLoadImm   // LD r, n
	OpLoadImm16 // LD rr, nn
	OpLoadReg   // LD r, r'
	OpLoadMem   // LD r, [HL] / LD A, [HL+]
	OpStoreMem  // LD [HL], r
	OpStoreAbs  // LD [nn], A
	OpLoadHigh  // LDH A, [n]
	OpStoreHigh // LDH [n], A
	OpCompare   // CP n
	OpSub       // SUB r
	OpAndImm    // AND n
	OpOrReg     // OR r
	OpOrImm     // OR n
	OpXorReg    // XOR r
	OpAddImm    // ADD A, n
	OpAddReg    // ADD A, r
	OpAddHL     // ADD HL, rr
	OpInc       // INC r / INC HL
	OpDec       // DEC r / DEC HL
	OpCpl       // CPL
	OpBit       // BIT b, r
	OpSwap      // SWAP r
	OpJumpRel   // JR cc, e
	OpJumpAbs   // JP cc, nn
	OpCall      // CALL nn
	OpRet       // RET / RET cc
	OpPush      // PUSH rr
	OpPop       // POP rr
)

// Reg is an 8-bit register. The constant values are the SM83 register
// indices used in opcode encoding.
type Reg uint8

const (
	B Reg = 0
	C Reg = 1
	D Reg = 2
	E Reg = 3
	H Reg = 4
	L Reg = 5
	A Reg = 7
)

var regNames = map[Reg]string{A: "A", B: "B", C: "C", D: "D", E: "E", H: "H", L: "L"}

func (r Reg) String() string {
	if n, ok := regNames[r]; ok {
		return n
	}
	return fmt.Sprintf("r%d", uint8(r))
}

// Pair is a 16-bit register pair for PUSH/POP and 16-bit loads.
type Pair uint8

const (
	BC Pair = iota
	DE
	HL
	AF
)

func (p Pair) String() string {
	return [...]string{"BC", "DE", "HL", "AF"}[p]
}

// Cond is a jump condition.
type Cond uint8

const (
	Always Cond = iota
	IfZ
	IfNZ
	IfC
	IfNC
)

func (c Cond) String() string {
	return [...]string{"", "Z", "NZ", "C", "NC"}[c]
}

func condMnemonic(c Cond, target string) string {
	if c == Always {
		return target
	}
	return c.String() + ", " + target
}

// Nop emits NOP.
func (b *Block) Nop() *Block {
	return b.emit(instruction{op: OpNop, bytes: []byte{0x00}, mn: "NOP"})
}

// LoadImm emits LD r, n.
func (b *Block) LoadImm(r Reg, v uint8) *Block {
	return b.emit(instruction{op: OpLoadImm, bytes: []byte{0x06 | uint8(r)<<3, v}, mn: fmt.Sprintf("LD %s, $%02X", r, v)})
}

// LoadReg emits LD dst, src.
func (b *Block) LoadReg(dst, src Reg) *Block {
	return b.emit(instruction{op: OpLoadReg, bytes: []byte{0x40 | uint8(dst)<<3 | uint8(src)}, mn: fmt.Sprintf("LD %s, %s", dst, src)})
}

// LoadHL emits LD HL, nn.
func (b *Block) LoadHL(v uint16) *Block {
	return b.emit(instruction{op: OpLoadImm16, bytes: []byte{0x21, uint8(v), uint8(v >> 8)}, mn: fmt.Sprintf("LD HL, $%04X", v)})
}

// LoadHLLabel emits LD HL, nn where nn is resolved from a label inside the
// block. Requires WithBase at assembly.
func (b *Block) LoadHLLabel(label string) *Block {
	return b.emit(instruction{op: OpLoadImm16, bytes: []byte{0x21, 0, 0}, abs: label, mn: "LD HL, " + label})
}

// LoadHLInc emits LD A, [HL+].
func (b *Block) LoadHLInc() *Block {
	return b.emit(instruction{op: OpLoadMem, bytes: []byte{0x2A}, mn: "LD A, [HL+]"})
}

// LoadMem emits LD r, [HL].
func (b *Block) LoadMem(r Reg) *Block {
	return b.emit(instruction{op: OpLoadMem, bytes: []byte{0x46 | uint8(r)<<3}, mn: fmt.Sprintf("LD %s, [HL]", r)})
}

// StoreMem emits LD [HL], r.
func (b *Block) StoreMem(r Reg) *Block {
	return b.emit(instruction{op: OpStoreMem, bytes: []byte{0x70 | uint8(r)}, mn: fmt.Sprintf("LD [HL], %s", r)})
}

// StoreAbs emits LD [nn], A.
func (b *Block) StoreAbs(addr uint16) *Block {
	return b.emit(instruction{op: OpStoreAbs, bytes: []byte{0xEA, uint8(addr), uint8(addr >> 8)}, mn: fmt.Sprintf("LD [$%04X], A", addr)})
}

// LoadHigh emits LDH A, [n], reading from high RAM / IO at 0xFF00+n.
func (b *Block) LoadHigh(n uint8) *Block {
	return b.emit(instruction{op: OpLoadHigh, bytes: []byte{0xF0, n}, mn: fmt.Sprintf("LDH A, [$FF%02X]", n)})
}

// StoreHigh emits LDH [n], A, writing to high RAM / IO at 0xFF00+n.
func (b *Block) StoreHigh(n uint8) *Block {
	return b.emit(instruction{op: OpStoreHigh, bytes: []byte{0xE0, n}, mn: fmt.Sprintf("LDH [$FF%02X], A", n)})
}

// Compare emits CP n.
func (b *Block) Compare(v uint8) *Block {
	return b.emit(instruction{op: OpCompare, bytes: []byte{0xFE, v}, mn: fmt.Sprintf("CP $%02X", v)})
}

// Sub emits SUB r.
func (b *Block) Sub(r Reg) *Block {
	return b.emit(instruction{op: OpSub, bytes: []byte{0x90 | uint8(r)}, mn: fmt.Sprintf("SUB %s", r)})
}

// AndImm emits AND n.
func (b *Block) AndImm(v uint8) *Block {
	return b.emit(instruction{op: OpAndImm, bytes: []byte{0xE6, v}, mn: fmt.Sprintf("AND $%02X", v)})
}

// Or emits OR r. OR A is the conventional zero test.
func (b *Block) Or(r Reg) *Block {
	return b.emit(instruction{op: OpOrReg, bytes: []byte{0xB0 | uint8(r)}, mn: fmt.Sprintf("OR %s", r)})
}

// OrImm emits OR n.
func (b *Block) OrImm(v uint8) *Block {
	return b.emit(instruction{op: OpOrImm, bytes: []byte{0xF6, v}, mn: fmt.Sprintf("OR $%02X", v)})
}

// Xor emits XOR r. XOR A is the conventional register clear.
func (b *Block) Xor(r Reg) *Block {
	return b.emit(instruction{op: OpXorReg, bytes: []byte{0xA8 | uint8(r)}, mn: fmt.Sprintf("XOR %s", r)})
}

// Cpl emits CPL, complementing A.
func (b *Block) Cpl() *Block {
	return b.emit(instruction{op: OpCpl, bytes: []byte{0x2F}, mn: "CPL"})
}

// AddImm emits ADD A, n.
func (b *Block) AddImm(v uint8) *Block {
	return b.emit(instruction{op: OpAddImm, bytes: []byte{0xC6, v}, mn: fmt.Sprintf("ADD A, $%02X", v)})
}

// Add emits ADD A, r.
func (b *Block) Add(r Reg) *Block {
	return b.emit(instruction{op: OpAddReg, bytes: []byte{0x80 | uint8(r)}, mn: fmt.Sprintf("ADD A, %s", r)})
}

// AddHL emits ADD HL, rr for BC, DE or HL.
func (b *Block) AddHL(p Pair) *Block {
	if p == AF {
		b.fail(fmt.Errorf("asm: ADD HL, AF is not encodable"))
		return b
	}
	return b.emit(instruction{op: OpAddHL, bytes: []byte{0x09 | uint8(p)<<4}, mn: fmt.Sprintf("ADD HL, %s", p)})
}

// Inc emits INC r.
func (b *Block) Inc(r Reg) *Block {
	return b.emit(instruction{op: OpInc, bytes: []byte{0x04 | uint8(r)<<3}, mn: fmt.Sprintf("INC %s", r)})
}

// Dec emits DEC r.
func (b *Block) Dec(r Reg) *Block {
	return b.emit(instruction{op: OpDec, bytes: []byte{0x05 | uint8(r)<<3}, mn: fmt.Sprintf("DEC %s", r)})
}

// IncHL emits INC HL.
func (b *Block) IncHL() *Block {
	return b.emit(instruction{op: OpInc, bytes: []byte{0x23}, mn: "INC HL"})
}

// DecHL emits DEC HL.
func (b *Block) DecHL() *Block {
	return b.emit(instruction{op: OpDec, bytes: []byte{0x2B}, mn: "DEC HL"})
}

// Bit emits BIT n, r, testing a single register bit.
func (b *Block) Bit(n uint8, r Reg) *Block {
	if n > 7 {
		b.fail(fmt.Errorf("asm: BIT %d, %s: bit index out of range", n, r))
		return b
	}
	return b.emit(instruction{op: OpBit, bytes: []byte{0xCB, 0x40 | n<<3 | uint8(r)}, mn: fmt.Sprintf("BIT %d, %s", n, r)})
}

// Swap emits SWAP r, exchanging the register's nibbles.
func (b *Block) Swap(r Reg) *Block {
	return b.emit(instruction{op: OpSwap, bytes: []byte{0xCB, 0x30 | uint8(r)}, mn: fmt.Sprintf("SWAP %s", r)})
}

var jrOpcodes = map[Cond]byte{Always: 0x18, IfNZ: 0x20, IfZ: 0x28, IfNC: 0x30, IfC: 0x38}

// JumpRel emits JR cc, e with the displacement resolved from a label during
// assembly. Displacements outside the signed byte range fail with
// RangeError; they are never truncated.
func (b *Block) JumpRel(c Cond, label string) *Block {
	return b.emit(instruction{op: OpJumpRel, bytes: []byte{jrOpcodes[c], 0x00}, rel: label, mn: "JR " + condMnemonic(c, label)})
}

var jpOpcodes = map[Cond]byte{Always: 0xC3, IfNZ: 0xC2, IfZ: 0xCA, IfNC: 0xD2, IfC: 0xDA}

// Jump emits JP cc, nn with the address resolved from a label inside the
// block. Requires WithBase at assembly.
func (b *Block) Jump(c Cond, label string) *Block {
	return b.emit(instruction{op: OpJumpAbs, bytes: []byte{jpOpcodes[c], 0, 0}, abs: label, mn: "JP " + condMnemonic(c, label)})
}

// JumpAddr emits JP cc, nn to a literal address.
func (b *Block) JumpAddr(c Cond, addr uint16) *Block {
	return b.emit(instruction{op: OpJumpAbs, bytes: []byte{jpOpcodes[c], uint8(addr), uint8(addr >> 8)}, mn: "JP " + condMnemonic(c, fmt.Sprintf("$%04X", addr))})
}

// Call emits CALL nn.
func (b *Block) Call(addr uint16) *Block {
	return b.emit(instruction{op: OpCall, bytes: []byte{0xCD, uint8(addr), uint8(addr >> 8)}, mn: fmt.Sprintf("CALL $%04X", addr)})
}

var retOpcodes = map[Cond]byte{Always: 0xC9, IfNZ: 0xC0, IfZ: 0xC8, IfNC: 0xD0, IfC: 0xD8}

// Ret emits RET or RET cc.
func (b *Block) Ret(c Cond) *Block {
	return b.emit(instruction{op: OpRet, bytes: []byte{retOpcodes[c]}, mn: "RET " + c.String()})
}

var pushOpcodes = map[Pair]byte{BC: 0xC5, DE: 0xD5, HL: 0xE5, AF: 0xF5}

// Push emits PUSH rr.
func (b *Block) Push(p Pair) *Block {
	return b.emit(instruction{op: OpPush, bytes: []byte{pushOpcodes[p]}, mn: fmt.Sprintf("PUSH %s", p)})
}

var popOpcodes = map[Pair]byte{BC: 0xC1, DE: 0xD1, HL: 0xE1, AF: 0xF1}

// Pop emits POP rr.
func (b *Block) Pop(p Pair) *Block {
	return b.emit(instruction{op: OpPop, bytes: []byte{popOpcodes[p]}, mn: fmt.Sprintf("POP %s", p)})
}
