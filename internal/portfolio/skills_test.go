package portfolio

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSkillItemValues(t *testing.T) {
	cases := []struct {
		item    SkillItem
		fill    float64
		display string
	}{
		{SkillItem{Value: 87}, 87, "87"},
		{SkillItem{Value: 140}, 100, "140"},
		{SkillItem{Value: -3}, 0, "-3"},
		{SkillItem{Value: 12.5, Unit: "%"}, 12.5, "12.5"},
		{SkillItem{Value: 5, Unit: "个"}, 100, "5"},
	}
	for _, tc := range cases {
		if got := tc.item.BarFill(); got != tc.fill {
			t.Errorf("BarFill(%+v) = %v, want %v", tc.item, got, tc.fill)
		}
		if got := tc.item.DisplayValue(); got != tc.display {
			t.Errorf("DisplayValue(%+v) = %q, want %q", tc.item, got, tc.display)
		}
	}
	if got := (SkillItem{Value: 140, Unit: "个"}).ClampedValue(); got != 100 {
		t.Fatalf("ClampedValue = %v", got)
	}
}

func TestSkillItemLenientDecode(t *testing.T) {
	var item SkillItem
	if err := json.Unmarshal([]byte(`{"name":"Python","value":"88"}`), &item); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if item.Value != 88 || item.UnitOrDefault() != DefaultUnit {
		t.Fatalf("item = %+v", item)
	}
}

func TestEffectiveLayout(t *testing.T) {
	items := func(n int) []SkillItem { return make([]SkillItem, n) }
	cases := []struct {
		cat  SkillCategory
		want SkillLayout
	}{
		{SkillCategory{Layout: LayoutRadar, Items: items(2)}, LayoutBar},
		{SkillCategory{Layout: LayoutRadar, Items: items(3)}, LayoutRadar},
		{SkillCategory{Layout: "pie", Items: items(5)}, LayoutBar},
		{SkillCategory{Layout: LayoutCircle, Items: items(1)}, LayoutCircle},
		{SkillCategory{Layout: LayoutStatGrid}, LayoutStatGrid},
	}
	for _, tc := range cases {
		if got := tc.cat.EffectiveLayout(); got != tc.want {
			t.Errorf("EffectiveLayout(%s, %d items) = %q, want %q", tc.cat.Layout, len(tc.cat.Items), got, tc.want)
		}
	}
}

func TestDecodeSkillsLegacyGrouping(t *testing.T) {
	raw := []byte(`[
		{"name":"Python","value":80,"category":"Coding"},
		{"name":"Drawing","value":60,"category":"Art"},
		{"name":"Scratch","value":90,"category":"Coding"},
		{"name":"Teamwork","value":70}
	]`)
	if !IsLegacySkills(raw) {
		t.Fatalf("legacy shape not detected")
	}
	got, err := DecodeSkills(raw, "")
	if err != nil {
		t.Fatalf("DecodeSkills: %v", err)
	}
	want := []SkillCategory{
		{Name: "Coding", Layout: LayoutBar, Items: []SkillItem{{Name: "Python", Value: 80}, {Name: "Scratch", Value: 90}}},
		{Name: "Art", Layout: LayoutBar, Items: []SkillItem{{Name: "Drawing", Value: 60}}},
		{Name: DefaultCategoryLabel, Layout: LayoutBar, Items: []SkillItem{{Name: "Teamwork", Value: 70}}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DecodeSkills =\n%+v\nwant\n%+v", got, want)
	}

	radar, err := DecodeSkills(raw, "radar")
	if err != nil {
		t.Fatalf("DecodeSkills: %v", err)
	}
	for _, c := range radar {
		if c.Layout != LayoutRadar {
			t.Fatalf("group %q layout = %q, want radar", c.Name, c.Layout)
		}
	}
}

func TestDecodeSkillsIdempotent(t *testing.T) {
	legacy := []byte(`[{"name":"Python","value":80,"category":"Coding"},{"name":"Art","value":50,"category":"Art"}]`)
	first, err := DecodeSkills(legacy, "circle")
	if err != nil {
		t.Fatalf("DecodeSkills: %v", err)
	}
	encoded, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if IsLegacySkills(encoded) {
		t.Fatalf("migrated data still looks legacy")
	}
	second, err := DecodeSkills(encoded, "bar")
	if err != nil {
		t.Fatalf("DecodeSkills: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("migration not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestDecodeSkillsCategorised(t *testing.T) {
	got, err := DecodeSkills([]byte(`[{"name":"Coding","layout":"radar","items":[{"name":"Go","value":50,"unit":"%"}]}]`), "bar")
	if err != nil {
		t.Fatalf("DecodeSkills: %v", err)
	}
	if len(got) != 1 || got[0].Layout != LayoutRadar || got[0].Items[0].Unit != "%" {
		t.Fatalf("DecodeSkills = %+v", got)
	}
	if empty, err := DecodeSkills(nil, ""); err != nil || empty != nil {
		t.Fatalf("empty column = %v, %v", empty, err)
	}
}
