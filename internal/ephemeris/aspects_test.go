package ephemeris

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"testing"
)

func positionsAt(lons map[string]float64, order ...string) []Position {
	var ps []Position
	for _, name := range order {
		ps = append(ps, NewPosition(name, lons[name], 1))
	}
	return ps
}

func matchSet(aspects []Aspect) []string {
	var out []string
	for _, a := range aspects {
		b1, b2 := a.Body1, a.Body2
		if b1 > b2 {
			b1, b2 = b2, b1
		}
		out = append(out, fmt.Sprintf("%s|%s|%s", b1, b2, a.Kind))
	}
	sort.Strings(out)
	return out
}

func TestAngularSeparation_SymmetricAndBounded(t *testing.T) {
	for a := -400.0; a <= 400; a += 13.7 {
		for b := -400.0; b <= 400; b += 17.3 {
			ab := AngularSeparation(a, b)
			ba := AngularSeparation(b, a)
			if math.Abs(ab-ba) > 1e-9 {
				t.Fatalf("separation(%v,%v)=%v but separation(%v,%v)=%v", a, b, ab, b, a, ba)
			}
			if ab < 0 || ab > 180 {
				t.Fatalf("separation(%v,%v)=%v outside [0,180]", a, b, ab)
			}
		}
	}
}

func TestAngularSeparation_Values(t *testing.T) {
	tests := []struct{ a, b, want float64 }{
		{0, 0, 0},
		{355, 5, 10},
		{10, 190, 180},
		{0, 270, 90},
		{720, 30, 30},
	}
	for _, tt := range tests {
		if got := AngularSeparation(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("AngularSeparation(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestComputeAspects_EnumerationOrder(t *testing.T) {
	ps := positionsAt(map[string]float64{"Sun": 0, "Moon": 120, "Mars": 185}, "Sun", "Moon", "Mars")
	got := ComputeAspects(ps, DefaultAspectKinds())

	want := []struct{ b1, b2, kind string }{
		{"Sun", "Moon", "trine"},
		{"Sun", "Mars", "opposition"},
		{"Moon", "Mars", "sextile"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d aspects, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Body1 != w.b1 || got[i].Body2 != w.b2 || got[i].Kind != w.kind {
			t.Errorf("aspect %d = %s-%s %s, want %s-%s %s", i, got[i].Body1, got[i].Body2, got[i].Kind, w.b1, w.b2, w.kind)
		}
	}
	if math.Abs(got[1].Angle-175) > 1e-9 {
		t.Errorf("Sun-Mars angle = %v, want 175", got[1].Angle)
	}
	if got[0].Sign1 != Aries || got[0].Sign2 != Leo {
		t.Errorf("signs = %s/%s, want Aries/Leo", got[0].Sign1, got[0].Sign2)
	}
}

func TestComputeAspects_WrapsAroundZero(t *testing.T) {
	ps := positionsAt(map[string]float64{"Venus": 355, "Mars": 5}, "Venus", "Mars")
	got := ComputeAspects(ps, DefaultAspectKinds())
	if len(got) != 1 || got[0].Kind != "conjunction" {
		t.Fatalf("expected one conjunction across 0°, got %+v", got)
	}
	if math.Abs(got[0].Angle-10) > 1e-9 {
		t.Errorf("angle = %v, want 10", got[0].Angle)
	}
}

func TestComputeAspects_OrbEdges(t *testing.T) {
	tests := []struct {
		sep  float64
		want string
	}{
		{32, "semisextile"},
		{32.01, ""},
		{66, "sextile"},
		{82, "square"},
		{128, "trine"},
		{148, "quincunx"},
		{152.5, ""},
		{170, "opposition"},
		{20, ""},
	}
	for _, tt := range tests {
		ps := positionsAt(map[string]float64{"A": 0, "B": tt.sep}, "A", "B")
		got := ComputeAspects(ps, DefaultAspectKinds())
		switch {
		case tt.want == "" && len(got) != 0:
			t.Errorf("separation %v: expected no aspect, got %+v", tt.sep, got)
		case tt.want != "" && (len(got) != 1 || got[0].Kind != tt.want):
			t.Errorf("separation %v: expected %s, got %+v", tt.sep, tt.want, got)
		}
	}
}

func TestComputeAspects_SymmetricUnderSwap(t *testing.T) {
	lons := map[string]float64{"Sun": 12.5, "Moon": 131, "Mercury": 40, "Venus": 355, "Mars": 191, "Jupiter": 72}
	order := []string{"Sun", "Moon", "Mercury", "Venus", "Mars", "Jupiter"}
	reversed := make([]string, len(order))
	for i, name := range order {
		reversed[len(order)-1-i] = name
	}

	forward := matchSet(ComputeAspects(positionsAt(lons, order...), DefaultAspectKinds()))
	backward := matchSet(ComputeAspects(positionsAt(lons, reversed...), DefaultAspectKinds()))
	if !reflect.DeepEqual(forward, backward) {
		t.Errorf("match sets differ:\n forward=%v\nbackward=%v", forward, backward)
	}
	if len(forward) == 0 {
		t.Fatal("fixture should produce aspects")
	}
}

func TestComputeAspects_Idempotent(t *testing.T) {
	ps := positionsAt(map[string]float64{"Sun": 0, "Moon": 61, "Mars": 92, "Saturn": 181}, "Sun", "Moon", "Mars", "Saturn")
	first := ComputeAspects(ps, DefaultAspectKinds())
	second := ComputeAspects(ps, DefaultAspectKinds())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second run differs: %+v vs %+v", first, second)
	}
}

func TestComputeAspects_RecordsEveryOverlappingMatch(t *testing.T) {
	kinds := []AspectKind{
		{Name: "wide", Angle: 90, Orb: 20},
		{Name: "tight", Angle: 95, Orb: 2},
	}
	ps := positionsAt(map[string]float64{"A": 0, "B": 94}, "A", "B")
	got := ComputeAspects(ps, kinds)
	if len(got) != 2 {
		t.Fatalf("expected both kinds recorded for one pair, got %+v", got)
	}
}

func TestComputeAspects_NeverPairsBodyWithItself(t *testing.T) {
	ps := positionsAt(map[string]float64{"Sun": 10}, "Sun")
	if got := ComputeAspects(ps, DefaultAspectKinds()); len(got) != 0 {
		t.Errorf("single body produced aspects: %+v", got)
	}
	if got := ComputeAspects(nil, DefaultAspectKinds()); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
