package portfolio

import (
	"encoding/json"
	"strconv"
)

// SkillLayout 决定一个技能分组的可视化方式。
type SkillLayout string

const (
	LayoutBar      SkillLayout = "bar"
	LayoutRadar    SkillLayout = "radar"
	LayoutCircle   SkillLayout = "circle"
	LayoutStatGrid SkillLayout = "stat_grid"
)

// MinRadarItems 是雷达图需要的最少轴数，不足时回落到条形图。
const MinRadarItems = 3

// DefaultUnit 是未填写单位时的默认单位。
const DefaultUnit = "%"

// ParseSkillLayout 未识别的取值一律视为 bar。
func ParseSkillLayout(s string) SkillLayout {
	switch l := SkillLayout(s); l {
	case LayoutBar, LayoutRadar, LayoutCircle, LayoutStatGrid:
		return l
	default:
		return LayoutBar
	}
}

type SkillItem struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// UnmarshalJSON 容忍 value 为数字字符串或缺失。
func (i *SkillItem) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	i.Name = looseString(fields["name"])
	i.Value = looseFloat(fields["value"])
	i.Unit = looseString(fields["unit"])
	return nil
}

// UnitOrDefault 返回展示用单位。
func (i SkillItem) UnitOrDefault() string {
	if i.Unit == "" {
		return DefaultUnit
	}
	return i.Unit
}

// IsPercent 只有百分比单位的数值才按比例绘制。
func (i SkillItem) IsPercent() bool {
	return i.UnitOrDefault() == DefaultUnit
}

// ClampedValue 用于所有按比例绘制的编码（雷达半径、环形进度）。
func (i SkillItem) ClampedValue() float64 {
	return clampPercent(i.Value)
}

// BarFill 返回条形图填充宽度（百分比）。
// 非百分比单位总是填满 100%。
func (i SkillItem) BarFill() float64 {
	if !i.IsPercent() {
		return 100
	}
	return clampPercent(i.Value)
}

// DisplayValue 返回原始数值文本，不做截断。
func (i SkillItem) DisplayValue() string {
	return strconv.FormatFloat(i.Value, 'f', -1, 64)
}

func clampPercent(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// SkillCategory 是一组共享展示方式的技能。
type SkillCategory struct {
	Name   string      `json:"name"`
	Layout SkillLayout `json:"layout"`
	Items  []SkillItem `json:"items"`
}

// UnmarshalJSON 规范化 layout。
func (c *SkillCategory) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   json.RawMessage `json:"name"`
		Layout json.RawMessage `json:"layout"`
		Items  []SkillItem     `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Name = looseString(raw.Name)
	c.Layout = ParseSkillLayout(looseString(raw.Layout))
	c.Items = raw.Items
	return nil
}

// EffectiveLayout 返回实际采用的展示方式；雷达图轴数不足时回落到条形图。
func (c SkillCategory) EffectiveLayout() SkillLayout {
	layout := ParseSkillLayout(string(c.Layout))
	if layout == LayoutRadar && len(c.Items) < MinRadarItems {
		return LayoutBar
	}
	return layout
}
