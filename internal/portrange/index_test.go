package portrange

import "testing"

func TestIndex_Single(t *testing.T) {
	var x Index
	x.InsertSingle(443)
	x.InsertSingle(80)

	if !x.Contains(443) || !x.Contains(80) {
		t.Fatal("inserted ports should match")
	}
	if x.Contains(22) || x.Contains(81) || x.Contains(444) {
		t.Fatal("other ports should not match")
	}
}

func TestIndex_Range(t *testing.T) {
	var x Index
	x.InsertRange(80, 443)

	for p := uint16(80); p <= 443; p++ {
		if !x.Contains(p) {
			t.Fatalf("Contains(%d) = false, want true", p)
		}
	}
	if x.Contains(67) || x.Contains(444) {
		t.Fatal("ports outside the range should not match")
	}
}

func TestIndex_Empty(t *testing.T) {
	var x Index
	if !x.Empty() {
		t.Fatal("zero Index should be empty")
	}
	if x.Contains(0) || x.Contains(65535) {
		t.Fatal("empty index matches nothing by itself")
	}
	x.InsertSingle(0)
	if x.Empty() {
		t.Fatal("Empty() = true after insert")
	}
}

// Overlapping ranges follow the nearest-start rule, not interval union.
func TestIndex_NearestStartShadowsWiderRange(t *testing.T) {
	var x Index
	x.InsertRange(80, 443)
	x.InsertRange(100, 110)

	if !x.Contains(105) {
		t.Fatal("Contains(105) = false, want true via 100-110")
	}
	if x.Contains(200) {
		t.Fatal("Contains(200) = true, want false: nearest start 100 ends at 110")
	}
	if !x.Contains(90) {
		t.Fatal("Contains(90) = false, want true via 80-443")
	}
}

func TestIndex_SameStartReplacesEnd(t *testing.T) {
	var x Index
	x.InsertRange(1000, 2000)
	x.InsertRange(1000, 1005)

	if x.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", x.Len())
	}
	if x.Contains(1500) {
		t.Fatal("Contains(1500) = true, want false after end replaced")
	}
	if !x.Contains(1003) {
		t.Fatal("Contains(1003) = false, want true")
	}
}

func TestIndex_ReversedRange(t *testing.T) {
	var x Index
	x.InsertRange(10, 1000)
	x.InsertRange(300, 200)

	for _, p := range []uint16{300, 301, 500} {
		if x.Contains(p) {
			t.Errorf("Contains(%d) = true, want false under reversed entry", p)
		}
	}
	for _, p := range []uint16{10, 200, 299} {
		if !x.Contains(p) {
			t.Errorf("Contains(%d) = false, want true via 10-1000", p)
		}
	}
}

func TestIndex_InsertOrderIndependent(t *testing.T) {
	var a, b Index
	a.InsertRange(80, 443)
	a.InsertRange(100, 110)
	a.InsertSingle(8080)
	b.InsertSingle(8080)
	b.InsertRange(100, 110)
	b.InsertRange(80, 443)

	for p := 0; p <= 65535; p += 7 {
		if a.Contains(uint16(p)) != b.Contains(uint16(p)) {
			t.Fatalf("Contains(%d) differs by insert order", p)
		}
	}
}
