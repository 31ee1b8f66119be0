package portfolio

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultCategoryLabel 用于旧数据里没有 category 的技能项。
const DefaultCategoryLabel = "General"

// legacySkill 是旧版扁平技能列表中的一项。
type legacySkill struct {
	SkillItem
	Category string
}

// IsLegacySkills 判断 skills 列是否为旧版扁平结构：首个元素带有 category 字段。
func IsLegacySkills(raw []byte) bool {
	var elems []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(raw), &elems); err != nil || len(elems) == 0 {
		return false
	}
	var first map[string]json.RawMessage
	if err := json.Unmarshal(elems[0], &first); err != nil {
		return false
	}
	_, ok := first["category"]
	return ok
}

// DecodeSkills 读取 skills 列，旧版结构在内存中按 category 分组迁移。
// legacyLayout 是旧版的全局展示方式，只对旧数据生效；存储中的记录不会被改写。
func DecodeSkills(raw []byte, legacyLayout string) ([]SkillCategory, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if IsLegacySkills(raw) {
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, fmt.Errorf("decode legacy skills: %w", err)
		}
		items := make([]legacySkill, 0, len(elems))
		for _, elem := range elems {
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(elem, &fields); err != nil {
				continue
			}
			var item SkillItem
			if err := json.Unmarshal(elem, &item); err != nil {
				continue
			}
			items = append(items, legacySkill{SkillItem: item, Category: looseString(fields["category"])})
		}
		return groupLegacySkills(items, legacyLayout), nil
	}

	var categories []SkillCategory
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, fmt.Errorf("decode skills: %w", err)
	}
	return categories, nil
}

// groupLegacySkills 按首次出现的顺序分组，所有分组继承同一个旧版全局展示方式。
func groupLegacySkills(items []legacySkill, legacyLayout string) []SkillCategory {
	layout := ParseSkillLayout(legacyLayout)

	index := make(map[string]int)
	categories := make([]SkillCategory, 0)
	for _, item := range items {
		name := item.Category
		if name == "" {
			name = DefaultCategoryLabel
		}
		pos, ok := index[name]
		if !ok {
			pos = len(categories)
			index[name] = pos
			categories = append(categories, SkillCategory{Name: name, Layout: layout})
		}
		categories[pos].Items = append(categories[pos].Items, item.SkillItem)
	}
	return categories
}
