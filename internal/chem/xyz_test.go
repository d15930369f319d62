package chem

import (
	"io"
	"strings"
	"testing"
)

const twoFrameXYZ = `3
water
O   0.000   0.000   0.117
H   0.000   0.757  -0.469
H   0.000  -0.757  -0.469
5
methane
C   0.000   0.000   0.000
H   0.629   0.629   0.629
H  -0.629  -0.629   0.629
H  -0.629   0.629  -0.629
H   0.629  -0.629  -0.629
`

func TestReadXYZ_MultiFrame(t *testing.T) {
	mols, err := ReadXYZ(strings.NewReader(twoFrameXYZ))
	if err != nil {
		t.Fatalf("ReadXYZ: %v", err)
	}
	if len(mols) != 2 {
		t.Fatalf("frames = %d, want 2", len(mols))
	}
	if mols[0].AtomCount() != 3 || mols[1].AtomCount() != 5 {
		t.Errorf("atom counts = %d, %d", mols[0].AtomCount(), mols[1].AtomCount())
	}
	if !mols[0].Is3D() {
		t.Error("water frame should be 3D")
	}
	zs := mols[1].AtomicNumbers()
	if zs[0] != 6 || zs[1] != 1 {
		t.Errorf("methane atomic numbers = %v", zs)
	}
	if mols[0].FormalCharge() != 0 {
		t.Error("xyz molecules default to neutral charge")
	}
}

func TestXYZStream_EOFAfterLastFrame(t *testing.T) {
	stream := NewXYZStream(strings.NewReader(twoFrameXYZ))
	for i := 0; i < 2; i++ {
		if _, err := stream.Next(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if _, err := stream.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReadXYZ_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad count", "x\ncomment\n"},
		{"truncated atoms", "2\ncomment\nO 0 0 0\n"},
		{"unknown element", "1\ncomment\nQq 0 0 0\n"},
		{"bad coordinate", "1\ncomment\nO 0 zero 0\n"},
	}
	for _, tt := range tests {
		if _, err := ReadXYZ(strings.NewReader(tt.input)); err == nil {
			t.Errorf("%s: expected parse error", tt.name)
		}
	}
}

func TestReadXYZ_BlankLinesBetweenFrames(t *testing.T) {
	input := "1\na\nO 0 0 0.1\n\n\n1\nb\nC 0 0 0.1\n"
	mols, err := ReadXYZ(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadXYZ: %v", err)
	}
	if len(mols) != 2 {
		t.Errorf("frames = %d, want 2", len(mols))
	}
}
