// Package asm emits machine code for the SM83 (Game Boy CPU) instruction
// subset the patch routines are built from. Routines are assembled in two
// passes: pass one lays out instruction widths and pins every label to its
// final byte offset, pass two encodes the bytes and patches relative jump
// displacements. The second pass exists because jump targets are routinely
// defined after the jump itself, and a displacement depends on the width of
// everything in between.
package asm

import "fmt"

// RangeError reports a relative jump whose displacement does not fit the
// single signed byte the encoding allows.
type RangeError struct {
	Label        string
	Displacement int
	Pos          int
}

func (e RangeError) Error() string {
	return fmt.Sprintf("asm: jump to %q at instruction %d needs displacement %d, outside the signed byte range", e.Label, e.Pos, e.Displacement)
}

// UnsafeOpcodeError reports an instruction outside the allow-list declared
// for the routine's injection site.
type UnsafeOpcodeError struct {
	Op  Op
	Mn  string
	Pos int
}

func (e UnsafeOpcodeError) Error() string {
	return fmt.Sprintf("asm: %s at instruction %d is outside the site's opcode allow-list", e.Mn, e.Pos)
}

type instruction struct {
	op    Op
	bytes []byte
	// rel names the label resolved into the final byte as a signed
	// relative displacement; abs names the label resolved into the final
	// two bytes as an absolute little-endian address.
	rel string
	abs string
	mn  string
}

// Block is a routine under construction: an ordered instruction sequence
// with named label markers. Append instructions with the emit methods, then
// finalise with Assemble.
type Block struct {
	instrs []instruction
	labels map[string]int // label name -> instruction index it precedes
	err    error          // first construction error, surfaced by Assemble
}

// NewBlock returns an empty routine.
func NewBlock() *Block {
	return &Block{labels: make(map[string]int)}
}

// Label marks the current position. Jumps may reference a label before or
// after it is defined, but every referenced label must exist by the time the
// block is assembled.
func (b *Block) Label(name string) *Block {
	if _, ok := b.labels[name]; ok {
		b.fail(fmt.Errorf("asm: duplicate label %q", name))
		return b
	}
	b.labels[name] = len(b.instrs)
	return b
}

// Raw appends pre-encoded instruction bytes. Used for re-emitting original
// instructions verbatim inside a trampoline; raw bytes are opted into the
// policy check under OpRaw.
func (b *Block) Raw(bytes ...byte) *Block {
	return b.emit(instruction{op: OpRaw, bytes: bytes, mn: fmt.Sprintf("DB % X", bytes)})
}

func (b *Block) emit(i instruction) *Block {
	b.instrs = append(b.instrs, i)
	return b
}

func (b *Block) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Len returns the byte length of the block as currently laid out. Widths
// are fixed per variant, so the length is exact even before assembly.
func (b *Block) Len() int {
	n := 0
	for _, i := range b.instrs {
		n += len(i.bytes)
	}
	return n
}

type assembleConfig struct {
	policy  Policy
	maxSize int
	base    uint16
	hasBase bool
}

// AssembleOpt configures a single Assemble call.
type AssembleOpt func(*assembleConfig)

// WithPolicy lints the block against an injection site's opcode allow-list.
// The list is empirically derived, not a proof of safety; see Policy.
func WithPolicy(p Policy) AssembleOpt {
	return func(c *assembleConfig) { c.policy = p }
}

// WithMaxSize fails assembly if the encoded routine exceeds n bytes.
func WithMaxSize(n int) AssembleOpt {
	return func(c *assembleConfig) { c.maxSize = n }
}

// WithBase declares the address the routine will be placed at, enabling
// absolute references (CALL/JP) to labels inside the block.
func WithBase(addr uint16) AssembleOpt {
	return func(c *assembleConfig) {
		c.base = addr
		c.hasBase = true
	}
}

// Assemble finalises the block. Pass one computes every label's byte
// offset from the fixed instruction widths; pass two encodes the stream,
// patching each relative jump with target - (instruction offset + width)
// and each absolute label reference with base + target offset.
func (b *Block) Assemble(opts ...AssembleOpt) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}

	var cfg assembleConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	// pass 1: instruction offsets and label offsets
	offsets := make([]int, len(b.instrs)+1)
	for idx, i := range b.instrs {
		offsets[idx+1] = offsets[idx] + len(i.bytes)
	}
	total := offsets[len(b.instrs)]

	labelOffset := func(name string) (int, bool) {
		idx, ok := b.labels[name]
		if !ok {
			return 0, false
		}
		return offsets[idx], true
	}

	if cfg.maxSize > 0 && total > cfg.maxSize {
		return nil, fmt.Errorf("asm: routine is %d bytes, exceeding the declared maximum of %d", total, cfg.maxSize)
	}

	// pass 2: encode and resolve
	out := make([]byte, 0, total)
	for idx, i := range b.instrs {
		if cfg.policy != nil && !cfg.policy.Allows(i.op) {
			return nil, UnsafeOpcodeError{Op: i.op, Mn: i.mn, Pos: idx}
		}

		enc := make([]byte, len(i.bytes))
		copy(enc, i.bytes)

		if i.rel != "" {
			target, ok := labelOffset(i.rel)
			if !ok {
				return nil, fmt.Errorf("asm: undefined label %q referenced at instruction %d", i.rel, idx)
			}
			disp := target - (offsets[idx] + len(i.bytes))
			if disp < -128 || disp > 127 {
				return nil, RangeError{Label: i.rel, Displacement: disp, Pos: idx}
			}
			enc[len(enc)-1] = uint8(int8(disp))
		}

		if i.abs != "" {
			target, ok := labelOffset(i.abs)
			if !ok {
				return nil, fmt.Errorf("asm: undefined label %q referenced at instruction %d", i.abs, idx)
			}
			if !cfg.hasBase {
				return nil, fmt.Errorf("asm: absolute reference to %q requires a base address, see WithBase", i.abs)
			}
			addr := cfg.base + uint16(target)
			enc[len(enc)-2] = uint8(addr)
			enc[len(enc)-1] = uint8(addr >> 8)
		}

		out = append(out, enc...)
	}

	return out, nil
}
