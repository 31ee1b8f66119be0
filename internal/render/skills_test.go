package render

import (
	"math"
	"strings"
	"testing"

	"kidsfolio/internal/portfolio"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRadarAngles(t *testing.T) {
	got := RadarAngles(4)
	want := []float64{0, 90, 180, 270}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("angle %d = %v, want %v", i, got[i], want[i])
		}
	}
	if RadarAngles(0) != nil {
		t.Fatalf("RadarAngles(0) should be nil")
	}
}

func TestPolarPointStartsAtTopClockwise(t *testing.T) {
	top := PolarPoint(100, 100, 50, 0)
	if !almostEqual(top.X, 100) || !almostEqual(top.Y, 50) {
		t.Fatalf("0° = %+v, want (100,50)", top)
	}
	right := PolarPoint(100, 100, 50, 90)
	if !almostEqual(right.X, 150) || !almostEqual(right.Y, 100) {
		t.Fatalf("90° = %+v, want (150,100)", right)
	}
}

func TestRadarPointsClampValues(t *testing.T) {
	items := []portfolio.SkillItem{{Name: "a", Value: 140}, {Name: "b", Value: -5}, {Name: "c", Value: 50}}
	points := RadarPoints(items, 0, 0, 100)
	if !almostEqual(points[0].Y, -100) {
		t.Fatalf("140 should clamp to the outer ring, got %+v", points[0])
	}
	if !almostEqual(points[1].X, 0) || !almostEqual(points[1].Y, 0) {
		t.Fatalf("negative value should sit at the centre, got %+v", points[1])
	}
}

func TestGaugeArc(t *testing.T) {
	circumference, offset := GaugeArc(portfolio.SkillItem{Value: 75}, 10)
	if !almostEqual(circumference, 20*math.Pi) {
		t.Fatalf("circumference = %v", circumference)
	}
	if !almostEqual(offset, circumference*0.25) {
		t.Fatalf("offset = %v", offset)
	}
	_, full := GaugeArc(portfolio.SkillItem{Value: 250}, 10)
	if !almostEqual(full, 0) {
		t.Fatalf("over-range offset = %v, want 0", full)
	}
}

func TestBarFillAndRawValue(t *testing.T) {
	ctx := testContext()
	n := SkillCategory(ctx, portfolio.SkillCategory{
		Name:   "Coding",
		Layout: portfolio.LayoutBar,
		Items: []portfolio.SkillItem{
			{Name: "Python", Value: 87},
			{Name: "Scratch", Value: 140},
			{Name: "Projects", Value: 12, Unit: "个"},
		},
	})
	fills := findAll(n, hasClass("skill-fill"))
	if len(fills) != 3 {
		t.Fatalf("fills = %d", len(fills))
	}
	wantFill := []string{"width: 87%", "width: 100%", "width: 100%"}
	for i, f := range fills {
		if style, _ := getAttr(f, "style"); style != wantFill[i] {
			t.Fatalf("fill %d style = %q, want %q", i, style, wantFill[i])
		}
	}
	values := findAll(n, hasClass("skill-value"))
	wantValues := []string{"87", "140", "12"}
	for i, v := range values {
		if textOf(v) != wantValues[i] {
			t.Fatalf("value %d = %q, want %q", i, textOf(v), wantValues[i])
		}
	}
	units := findAll(n, hasClass("skill-unit"))
	if textOf(units[2]) != "个" || textOf(units[0]) != "%" {
		t.Fatalf("units = %q, %q", textOf(units[0]), textOf(units[2]))
	}
}

func TestRadarFallsBackToBar(t *testing.T) {
	ctx := testContext()
	two := SkillCategory(ctx, portfolio.SkillCategory{
		Layout: portfolio.LayoutRadar,
		Items:  []portfolio.SkillItem{{Name: "a", Value: 1}, {Name: "b", Value: 2}},
	})
	if layout, _ := getAttr(two, "data-skill-layout"); layout != string(portfolio.LayoutBar) {
		t.Fatalf("layout = %q, want bar", layout)
	}
	if got := findAll(two, tagIs("svg")); len(got) != 0 {
		t.Fatalf("radar svg rendered for 2 items")
	}

	three := SkillCategory(ctx, portfolio.SkillCategory{
		Layout: portfolio.LayoutRadar,
		Items:  []portfolio.SkillItem{{Name: "a", Value: 10}, {Name: "b", Value: 20}, {Name: "c", Value: 30}},
	})
	if layout, _ := getAttr(three, "data-skill-layout"); layout != string(portfolio.LayoutRadar) {
		t.Fatalf("layout = %q, want radar", layout)
	}
	if got := findAll(three, hasClass("radar-ring")); len(got) != len(RadarRings) {
		t.Fatalf("rings = %d", len(got))
	}
	if got := findAll(three, hasClass("radar-spoke")); len(got) != 3 {
		t.Fatalf("spokes = %d", len(got))
	}
}

func TestCircleAndStatGrid(t *testing.T) {
	ctx := testContext()
	circle := SkillCategory(ctx, portfolio.SkillCategory{
		Layout: portfolio.LayoutCircle,
		Items:  []portfolio.SkillItem{{Name: "a", Value: 50}},
	})
	arcs := findAll(circle, hasClass("gauge-arc"))
	if len(arcs) != 1 {
		t.Fatalf("arcs = %d", len(arcs))
	}
	if transform, _ := getAttr(arcs[0], "transform"); !strings.HasPrefix(transform, "rotate(-90") {
		t.Fatalf("arc does not start at 12 o'clock: %q", transform)
	}

	stats := SkillCategory(ctx, portfolio.SkillCategory{
		Layout: portfolio.LayoutStatGrid,
		Items:  []portfolio.SkillItem{{Name: "Competitions", Value: 3, Unit: "次"}},
	})
	cards := findAll(stats, hasClass("skill-stat"))
	if len(cards) != 1 || !strings.Contains(textOf(cards[0]), "3次") {
		t.Fatalf("stat card = %v", cards)
	}
}
