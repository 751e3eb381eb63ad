package common

import (
	"math"
	"testing"
)

const eps = 1e-5

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < eps
}

func TestMod(t *testing.T) {
	tests := []struct {
		name string
		v, m float32
		want float32
	}{
		{"in range", 1.5, 4, 1.5},
		{"exact modulus wraps to zero", 4, 4, 0},
		{"above modulus", 5.5, 4, 1.5},
		{"multiple wraps", 13, 4, 1},
		{"negative wraps positive", -1, 4, 3},
		{"zero", 0, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mod(tt.v, tt.m)
			if !almostEqual(got, tt.want) {
				t.Errorf("Mod(%v, %v) = %v, want %v", tt.v, tt.m, got, tt.want)
			}
		})
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		name string
		f    float32
		want float32
	}{
		{"below", -0.5, 0},
		{"zero", 0, 0},
		{"inside", 0.25, 0.25},
		{"one", 1, 1},
		{"above", 1.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp01(tt.f); got != tt.want {
				t.Errorf("Clamp01(%v) = %v, want %v", tt.f, got, tt.want)
			}
		})
	}
}

func TestLerp3(t *testing.T) {
	a := [3]float32{0, 2, -4}
	b := [3]float32{2, 4, 4}
	got := Lerp3(a, b, 0.5)
	want := [3]float32{1, 3, 0}
	for i := range got {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("Lerp3 midpoint = %v, want %v", got, want)
		}
	}

	if got := Lerp3(a, b, 0); got != a {
		t.Errorf("Lerp3 at 0 = %v, want %v", got, a)
	}
	if got := Lerp3(a, b, 1); got != b {
		t.Errorf("Lerp3 at 1 = %v, want %v", got, b)
	}
}

func TestSlerpEndpoints(t *testing.T) {
	identity := [4]float32{0, 0, 0, 1}
	// 90 degrees around Y.
	halfY := float32(math.Sin(math.Pi / 4))
	q := [4]float32{0, halfY, 0, float32(math.Cos(math.Pi / 4))}

	got := Slerp(identity, q, 0)
	for i := range got {
		if !almostEqual(got[i], identity[i]) {
			t.Fatalf("Slerp at 0 = %v, want identity", got)
		}
	}

	got = Slerp(identity, q, 1)
	for i := range got {
		if !almostEqual(got[i], q[i]) {
			t.Fatalf("Slerp at 1 = %v, want %v", got, q)
		}
	}
}

func TestSlerpMidpointIsUnit(t *testing.T) {
	identity := [4]float32{0, 0, 0, 1}
	halfY := float32(math.Sin(math.Pi / 4))
	q := [4]float32{0, halfY, 0, float32(math.Cos(math.Pi / 4))}

	mid := Slerp(identity, q, 0.5)
	lenSq := mid[0]*mid[0] + mid[1]*mid[1] + mid[2]*mid[2] + mid[3]*mid[3]
	if !almostEqual(lenSq, 1) {
		t.Errorf("Slerp midpoint length squared = %v, want 1", lenSq)
	}

	// Midpoint of a 90 degree Y rotation is a 45 degree Y rotation.
	want := [4]float32{0, float32(math.Sin(math.Pi / 8)), 0, float32(math.Cos(math.Pi / 8))}
	for i := range mid {
		if !almostEqual(mid[i], want[i]) {
			t.Fatalf("Slerp midpoint = %v, want %v", mid, want)
		}
	}
}

func TestSlerpTakesShortestArc(t *testing.T) {
	identity := [4]float32{0, 0, 0, 1}
	// -identity represents the same rotation; slerp must not swing through it.
	negIdentity := [4]float32{0, 0, 0, -1}

	got := Slerp(identity, negIdentity, 0.5)
	lenSq := got[0]*got[0] + got[1]*got[1] + got[2]*got[2] + got[3]*got[3]
	if !almostEqual(lenSq, 1) {
		t.Errorf("shortest-arc midpoint length squared = %v, want 1", lenSq)
	}
	if got[3] < 0.99 && got[3] > -0.99 {
		t.Errorf("Slerp between equivalent rotations drifted: %v", got)
	}
}

func TestNormalizeQuat(t *testing.T) {
	got := NormalizeQuat([4]float32{0, 0, 0, 2})
	want := [4]float32{0, 0, 0, 1}
	if got != want {
		t.Errorf("NormalizeQuat scaled identity = %v, want %v", got, want)
	}

	got = NormalizeQuat([4]float32{})
	if got != want {
		t.Errorf("NormalizeQuat zero = %v, want identity", got)
	}
}

func TestComposeTRSTranslationOnly(t *testing.T) {
	var m [16]float32
	ComposeTRS(m[:], [3]float32{1, 2, 3}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1})

	var id [16]float32
	Identity(id[:])
	id[12], id[13], id[14] = 1, 2, 3
	for i := range m {
		if !almostEqual(m[i], id[i]) {
			t.Fatalf("ComposeTRS translation matrix = %v, want %v", m, id)
		}
	}
}

func TestInvert4RoundTrip(t *testing.T) {
	var m [16]float32
	halfY := float32(math.Sin(math.Pi / 6))
	ComposeTRS(m[:], [3]float32{3, -1, 2}, [4]float32{0, halfY, 0, float32(math.Cos(math.Pi / 6))}, [3]float32{2, 2, 2})

	var inv, prod [16]float32
	if !Invert4(inv[:], m[:]) {
		t.Fatal("Invert4 reported singular for an invertible matrix")
	}
	Mul4(prod[:], m[:], inv[:])

	var id [16]float32
	Identity(id[:])
	for i := range prod {
		if !almostEqual(prod[i], id[i]) {
			t.Fatalf("m * inv(m) = %v, want identity", prod)
		}
	}
}

func TestInvert4Singular(t *testing.T) {
	var zero, out [16]float32
	if Invert4(out[:], zero[:]) {
		t.Error("Invert4 inverted a singular matrix")
	}
}

func TestMul4Identity(t *testing.T) {
	var id, m, out [16]float32
	Identity(id[:])
	ComposeTRS(m[:], [3]float32{1, 2, 3}, [4]float32{0, 0, 0, 1}, [3]float32{1, 2, 1})

	Mul4(out[:], id[:], m[:])
	if out != m {
		t.Errorf("I * m = %v, want %v", out, m)
	}
	Mul4(out[:], m[:], id[:])
	if out != m {
		t.Errorf("m * I = %v, want %v", out, m)
	}
}

func TestMul4AliasedOutput(t *testing.T) {
	var a, b, want [16]float32
	ComposeTRS(a[:], [3]float32{1, 0, 0}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1})
	ComposeTRS(b[:], [3]float32{0, 2, 0}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1})
	Mul4(want[:], a[:], b[:])

	// out may alias an input.
	got := a
	Mul4(got[:], got[:], b[:])
	if got != want {
		t.Errorf("aliased Mul4 = %v, want %v", got, want)
	}
}

func TestHashName(t *testing.T) {
	if HashName("hips") != HashName("hips") {
		t.Error("HashName is not stable for equal inputs")
	}
	if HashName("hips") == HashName("spine") {
		t.Error("HashName collided on distinct short names")
	}
	// FNV-1a offset basis for the empty string.
	if got := HashName(""); got != 2166136261 {
		t.Errorf("HashName(\"\") = %d, want FNV-1a offset basis", got)
	}
}

func TestSliceToBytes(t *testing.T) {
	data := []float32{1, 2}
	b := SliceToBytes(data)
	if len(b) != 8 {
		t.Fatalf("SliceToBytes length = %d, want 8", len(b))
	}
	if b := SliceToBytes([]float32(nil)); b != nil {
		t.Error("SliceToBytes of empty slice should be nil")
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce(0, 5); got != 5 {
		t.Errorf("Coalesce(0, 5) = %d, want 5", got)
	}
	if got := Coalesce(3, 5); got != 3 {
		t.Errorf("Coalesce(3, 5) = %d, want 3", got)
	}
}
