package portfolio

import (
	"encoding/json"
	"fmt"

	"kidsfolio/internal/database"
)

// themeConfig 对应 theme_config 列。
type themeConfig struct {
	Theme       string `json:"theme"`
	SkillLayout string `json:"skill_layout"`
}

// View 是一次页面访问使用的作品集数据，只读。
// 翻译得到的是另一个同结构的 View，两者互不合并。
type View struct {
	Slug         string
	StudentName  string
	StudentTitle string
	SummaryBio   string
	HeroImageURL string
	AvatarURL    string
	Theme        Theme
	Skills       []SkillCategory
	Blocks       []Block
}

// Tokens 返回视图主题的样式值。
func (v View) Tokens() Tokens {
	return ResolveTheme(string(v.Theme))
}

// FromRecord 把数据库行转换为视图：解析主题、内容块，并在内存中迁移旧版技能数据。
func FromRecord(row database.StudentPortfolio) (View, error) {
	var tc themeConfig
	if len(row.ThemeConfig) > 0 {
		// 主题配置损坏时按默认主题处理
		_ = json.Unmarshal(row.ThemeConfig, &tc)
	}

	blocks, err := DecodeBlocks(row.ContentBlocks)
	if err != nil {
		return View{}, fmt.Errorf("portfolio %q: %w", row.Slug, err)
	}

	skills, err := DecodeSkills(row.Skills, tc.SkillLayout)
	if err != nil {
		return View{}, fmt.Errorf("portfolio %q: %w", row.Slug, err)
	}

	return View{
		Slug:         row.Slug,
		StudentName:  row.StudentName,
		StudentTitle: row.StudentTitle,
		SummaryBio:   row.SummaryBio,
		HeroImageURL: row.HeroImageURL,
		AvatarURL:    row.AvatarURL,
		Theme:        ParseTheme(tc.Theme),
		Skills:       skills,
		Blocks:       blocks,
	}, nil
}

// Clone 深拷贝视图，修改副本不会影响原视图。
func (v View) Clone() View {
	out := v
	if v.Skills != nil {
		out.Skills = make([]SkillCategory, len(v.Skills))
		for i, c := range v.Skills {
			c.Items = append([]SkillItem(nil), c.Items...)
			out.Skills[i] = c
		}
	}
	if v.Blocks != nil {
		out.Blocks = make([]Block, len(v.Blocks))
		for i, b := range v.Blocks {
			out.Blocks[i] = cloneBlock(b)
		}
	}
	return out
}

func cloneBlock(b Block) Block {
	switch v := b.(type) {
	case TimelineNode:
		v.Media = append([]MediaItem(nil), v.Media...)
		return v
	case ImageGrid:
		v.URLs = append([]string(nil), v.URLs...)
		return v
	case ProjectHighlight:
		v.EvidenceURLs = append([]string(nil), v.EvidenceURLs...)
		return v
	case UnknownBlock:
		v.Raw = append(json.RawMessage(nil), v.Raw...)
		return v
	default:
		return b
	}
}
