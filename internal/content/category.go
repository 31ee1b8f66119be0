// Package content 是官网各内容栏目（课程、作品展示、理念、公益项目、页面区块）的读写逻辑。
package content

// Category 把对外的栏目名映射到数据表。
type Category struct {
	Slug  string
	Table string
}

var categories = []Category{
	{Slug: "curriculum", Table: "curriculum_items"},
	{Slug: "showcases", Table: "showcases"},
	{Slug: "philosophy", Table: "philosophy_items"},
	{Slug: "social-projects", Table: "social_projects"},
	{Slug: "page-sections", Table: "page_sections"},
}

// Lookup 按栏目名查找，未知栏目返回 false。
func Lookup(slug string) (Category, bool) {
	for _, c := range categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return Category{}, false
}

// Categories 返回全部栏目。
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Tables 返回全部栏目表名，用于建表。
func Tables() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.Table
	}
	return out
}
