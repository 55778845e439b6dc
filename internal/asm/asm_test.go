package asm

import (
	"bytes"
	"errors"
	"testing"
)

func TestBlock_ForwardJump(t *testing.T) {
	b := NewBlock()
	b.JumpRel(IfNZ, "done")
	b.Nop()
	b.Nop()
	b.Label("done")
	b.Ret(Always)

	got, err := b.Assemble()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// JR NZ skips the two NOPs: displacement +2
	want := []byte{0x20, 0x02, 0x00, 0x00, 0xC9}
	if !bytes.Equal(got, want) {
		t.Errorf("expected % X, got % X", want, got)
	}
}

func TestBlock_BackwardJump(t *testing.T) {
	// the palette copy loop: LD A, [HL+] / LDH [$FF69], A / DEC C / JR NZ
	b := NewBlock()
	b.Label("loop")
	b.LoadHLInc()
	b.StoreHigh(0x69)
	b.Dec(C)
	b.JumpRel(IfNZ, "loop")

	got, err := b.Assemble()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x2A, 0xE0, 0x69, 0x0D, 0x20, 0xFA} // -6
	if !bytes.Equal(got, want) {
		t.Errorf("expected % X, got % X", want, got)
	}
}

func TestBlock_Encodings(t *testing.T) {
	// spot checks against hand-assembled bytes
	tests := []struct {
		name  string
		build func(*Block) *Block
		want  []byte
	}{
		{"LD A, $80", func(b *Block) *Block { return b.LoadImm(A, 0x80) }, []byte{0x3E, 0x80}},
		{"LD C, $40", func(b *Block) *Block { return b.LoadImm(C, 0x40) }, []byte{0x0E, 0x40}},
		{"LD B, A", func(b *Block) *Block { return b.LoadReg(B, A) }, []byte{0x47}},
		{"LD A, D", func(b *Block) *Block { return b.LoadReg(A, D) }, []byte{0x7A}},
		{"LD HL, $6800", func(b *Block) *Block { return b.LoadHL(0x6800) }, []byte{0x21, 0x00, 0x68}},
		{"LD D, [HL]", func(b *Block) *Block { return b.LoadMem(D) }, []byte{0x56}},
		{"LD [HL], E", func(b *Block) *Block { return b.StoreMem(E) }, []byte{0x73}},
		{"LD [$2000], A", func(b *Block) *Block { return b.StoreAbs(0x2000) }, []byte{0xEA, 0x00, 0x20}},
		{"LDH A, [$FF41]", func(b *Block) *Block { return b.LoadHigh(0x41) }, []byte{0xF0, 0x41}},
		{"LDH [$FF4F], A", func(b *Block) *Block { return b.StoreHigh(0x4F) }, []byte{0xE0, 0x4F}},
		{"CP $91", func(b *Block) *Block { return b.Compare(0x91) }, []byte{0xFE, 0x91}},
		{"SUB B", func(b *Block) *Block { return b.Sub(B) }, []byte{0x90}},
		{"AND $1F", func(b *Block) *Block { return b.AndImm(0x1F) }, []byte{0xE6, 0x1F}},
		{"OR A", func(b *Block) *Block { return b.Or(A) }, []byte{0xB7}},
		{"OR C", func(b *Block) *Block { return b.Or(C) }, []byte{0xB1}},
		{"XOR A", func(b *Block) *Block { return b.Xor(A) }, []byte{0xAF}},
		{"ADD A, $98", func(b *Block) *Block { return b.AddImm(0x98) }, []byte{0xC6, 0x98}},
		{"ADD A, A", func(b *Block) *Block { return b.Add(A) }, []byte{0x87}},
		{"ADD HL, HL", func(b *Block) *Block { return b.AddHL(HL) }, []byte{0x29}},
		{"ADD HL, BC", func(b *Block) *Block { return b.AddHL(BC) }, []byte{0x09}},
		{"INC A", func(b *Block) *Block { return b.Inc(A) }, []byte{0x3C}},
		{"DEC B", func(b *Block) *Block { return b.Dec(B) }, []byte{0x05}},
		{"INC HL", func(b *Block) *Block { return b.IncHL() }, []byte{0x23}},
		{"DEC HL", func(b *Block) *Block { return b.DecHL() }, []byte{0x2B}},
		{"BIT 7, A", func(b *Block) *Block { return b.Bit(7, A) }, []byte{0xCB, 0x7F}},
		{"CALL $6D00", func(b *Block) *Block { return b.Call(0x6D00) }, []byte{0xCD, 0x00, 0x6D}},
		{"RET", func(b *Block) *Block { return b.Ret(Always) }, []byte{0xC9}},
		{"RET Z", func(b *Block) *Block { return b.Ret(IfZ) }, []byte{0xC8}},
		{"PUSH AF", func(b *Block) *Block { return b.Push(AF) }, []byte{0xF5}},
		{"POP HL", func(b *Block) *Block { return b.Pop(HL) }, []byte{0xE1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.build(NewBlock()).Assemble()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("expected % X, got % X", tt.want, got)
			}
		})
	}
}

func TestBlock_JumpOutOfRange(t *testing.T) {
	b := NewBlock()
	b.JumpRel(Always, "far")
	for i := 0; i < 70; i++ {
		b.LoadImm(A, 0x00) // 140 bytes of filler
	}
	b.Label("far")
	b.Ret(Always)

	_, err := b.Assemble()
	var re RangeError
	if !errors.As(err, &re) {
		t.Fatalf("expected RangeError, got %v", err)
	}
	if re.Displacement != 140 {
		t.Errorf("expected displacement 140, got %d", re.Displacement)
	}
}

func TestBlock_UndefinedLabel(t *testing.T) {
	b := NewBlock()
	b.JumpRel(Always, "nowhere")
	if _, err := b.Assemble(); err == nil {
		t.Error("expected error for undefined label")
	}
}

func TestBlock_DuplicateLabel(t *testing.T) {
	b := NewBlock()
	b.Label("twice")
	b.Nop()
	b.Label("twice")
	if _, err := b.Assemble(); err == nil {
		t.Error("expected error for duplicate label")
	}
}

func TestBlock_AbsoluteLabel(t *testing.T) {
	b := NewBlock()
	b.Label("top")
	b.Dec(B)
	b.Jump(IfNZ, "top")
	b.Ret(Always)

	// without a base address, absolute references cannot resolve
	if _, err := b.Assemble(); err == nil {
		t.Error("expected error without a base address")
	}

	got, err := b.Assemble(WithBase(0x6A10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x05, 0xC2, 0x10, 0x6A, 0xC9}
	if !bytes.Equal(got, want) {
		t.Errorf("expected % X, got % X", want, got)
	}
}

func TestBlock_LoadHLLabel(t *testing.T) {
	b := NewBlock()
	b.LoadHLLabel("data")
	b.Ret(Always)
	b.Label("data")
	b.Raw(0xFF, 0x7F)

	got, err := b.Assemble(WithBase(0x6900))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// data sits 4 bytes in: 0x6904
	want := []byte{0x21, 0x04, 0x69, 0xC9, 0xFF, 0x7F}
	if !bytes.Equal(got, want) {
		t.Errorf("expected % X, got % X", want, got)
	}
}

func TestBlock_MaxSize(t *testing.T) {
	b := NewBlock()
	for i := 0; i < 10; i++ {
		b.Nop()
	}
	if _, err := b.Assemble(WithMaxSize(8)); err == nil {
		t.Error("expected error for routine exceeding its declared maximum size")
	}
	if _, err := b.Assemble(WithMaxSize(10)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBlock_Policy(t *testing.T) {
	p := Allow(OpLoadImm, OpStoreHigh, OpRet)

	b := NewBlock()
	b.LoadImm(A, 0x80)
	b.StoreHigh(0x68)
	b.Ret(Always)
	if _, err := b.Assemble(WithPolicy(p)); err != nil {
		t.Fatalf("conforming routine rejected: %v", err)
	}

	// an absolute store is not on this site's list
	b = NewBlock()
	b.LoadImm(A, 0x0D)
	b.StoreAbs(0x2000)
	b.Ret(Always)

	out, err := b.Assemble(WithPolicy(p))
	var ue UnsafeOpcodeError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnsafeOpcodeError, got %v", err)
	}
	if ue.Op != OpStoreAbs {
		t.Errorf("expected OpStoreAbs to be flagged, got %v", ue.Op)
	}
	if out != nil {
		t.Error("failed assembly must produce no partial output")
	}

	// nil policy allows everything
	if _, err := b.Assemble(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBlock_Len(t *testing.T) {
	b := NewBlock()
	b.Push(AF)           // 1
	b.LoadImm(A, 0x0D)   // 2
	b.StoreAbs(0x2000)   // 3
	b.Call(0x6D00)       // 3
	b.JumpRel(Always, "x") // 2
	b.Label("x")
	b.Ret(Always) // 1

	if b.Len() != 12 {
		t.Errorf("expected length 12, got %d", b.Len())
	}
}
