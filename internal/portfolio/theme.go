package portfolio

// Theme 是作品集页面的主题名。
type Theme string

const (
	ThemeTechDark      Theme = "tech_dark"
	ThemeAcademicLight Theme = "academic_light"
	ThemeCreativeColor Theme = "creative_color"
)

// DefaultTheme 在主题缺失或无法识别时使用。
const DefaultTheme = ThemeTechDark

// Tokens 是一个主题对应的固定样式值，按值传递，渲染过程中不修改。
type Tokens struct {
	Theme      Theme
	Background string
	Text       string
	MutedText  string
	CardBg     string
	Accent     string
	Border     string
	FontFamily string
	NavBg      string
	CTABg      string
	CTAText    string
	BlobA      string
	BlobB      string
}

var themeTokens = map[Theme]Tokens{
	ThemeTechDark: {
		Theme:      ThemeTechDark,
		Background: "#0b1120",
		Text:       "#e2e8f0",
		MutedText:  "#94a3b8",
		CardBg:     "rgba(15, 23, 42, 0.72)",
		Accent:     "#22d3ee",
		Border:     "#1e293b",
		FontFamily: "'JetBrains Mono', 'Fira Code', monospace",
		NavBg:      "rgba(2, 6, 23, 0.85)",
		CTABg:      "#22d3ee",
		CTAText:    "#0b1120",
		BlobA:      "rgba(34, 211, 238, 0.25)",
		BlobB:      "rgba(168, 85, 247, 0.22)",
	},
	ThemeAcademicLight: {
		Theme:      ThemeAcademicLight,
		Background: "#f8fafc",
		Text:       "#1e293b",
		MutedText:  "#64748b",
		CardBg:     "#ffffff",
		Accent:     "#2563eb",
		Border:     "#e2e8f0",
		FontFamily: "Georgia, 'Times New Roman', serif",
		NavBg:      "rgba(255, 255, 255, 0.9)",
		CTABg:      "#1e3a8a",
		CTAText:    "#ffffff",
		BlobA:      "rgba(37, 99, 235, 0.12)",
		BlobB:      "rgba(14, 165, 233, 0.10)",
	},
	ThemeCreativeColor: {
		Theme:      ThemeCreativeColor,
		Background: "#fff7ed",
		Text:       "#431407",
		MutedText:  "#9a3412",
		CardBg:     "#ffffff",
		Accent:     "#f97316",
		Border:     "#fed7aa",
		FontFamily: "'Nunito', 'Trebuchet MS', sans-serif",
		NavBg:      "rgba(255, 237, 213, 0.9)",
		CTABg:      "#ec4899",
		CTAText:    "#ffffff",
		BlobA:      "rgba(249, 115, 22, 0.28)",
		BlobB:      "rgba(236, 72, 153, 0.24)",
	},
}

// ParseTheme 未识别的主题名回落到默认主题。
func ParseTheme(name string) Theme {
	if _, ok := themeTokens[Theme(name)]; ok {
		return Theme(name)
	}
	return DefaultTheme
}

// ResolveTheme 返回主题的样式值，不存在错误路径。
func ResolveTheme(name string) Tokens {
	return themeTokens[ParseTheme(name)]
}

// Themes 返回全部可选主题。
func Themes() []Theme {
	return []Theme{ThemeTechDark, ThemeAcademicLight, ThemeCreativeColor}
}
