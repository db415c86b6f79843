package util

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"  Centrifugal Pump A ", "CENTRIFUGAL PUMP A"},
		{"cable 3*2.5 mm²", "CABLE 3X2.5 MM2"},
		{`Valve "DN50"`, "VALVE DN50"},
		{"pump   a", "PUMP A"},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.input); got != tc.want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestLooksLikeCode(t *testing.T) {
	if !LooksLikeCode("VLV-50A") {
		t.Fatal("VLV-50A should look like a code")
	}
	if LooksLikeCode("Centrifugal Pump") {
		t.Fatal("free text should not look like a code")
	}
	if LooksLikeCode("ab") {
		t.Fatal("too short to be a code")
	}
}

func TestDiceCoefficient(t *testing.T) {
	if got := DiceCoefficient("PUMP A", "PUMP A"); got != 1 {
		t.Fatalf("identical strings: got %v", got)
	}
	if got := DiceCoefficient("PUMP", "VALVE"); got != 0 {
		t.Fatalf("disjoint strings: got %v", got)
	}
	mid := DiceCoefficient("CENTRIFUGAL PUMP A", "CENTRIFUGAL PUMP B")
	if mid <= 0.5 || mid >= 1 {
		t.Fatalf("near match out of range: %v", mid)
	}
}
