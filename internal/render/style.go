package render

import (
	"fmt"

	"kidsfolio/internal/portfolio"
)

// Stylesheet 把主题样式值写入 CSS 变量，其余规则与主题无关。
func Stylesheet(t portfolio.Tokens) string {
	vars := fmt.Sprintf(`:root {
  --bg: %s; --text: %s; --muted: %s; --card: %s; --accent: %s; --border: %s;
  --font: %s; --nav: %s; --cta-bg: %s; --cta-text: %s; --blob-a: %s; --blob-b: %s;
}
`, t.Background, t.Text, t.MutedText, t.CardBg, t.Accent, t.Border,
		t.FontFamily, t.NavBg, t.CTABg, t.CTAText, t.BlobA, t.BlobB)
	return vars + baseCSS
}

const baseCSS = `
* { box-sizing: border-box; }
body { margin: 0; background: var(--bg); color: var(--text); font-family: var(--font); }
#portfolio-root { position: relative; overflow: hidden; max-width: 1080px; margin: 0 auto; padding: 0 24px 64px; background: var(--bg); }
.blob { position: absolute; width: 420px; height: 420px; border-radius: 50%; filter: blur(80px); z-index: 0; pointer-events: none; }
.blob-a { background: var(--blob-a); top: -120px; left: -140px; }
.blob-b { background: var(--blob-b); top: 420px; right: -160px; }
.topnav { position: sticky; top: 0; z-index: 5; display: flex; justify-content: space-between; align-items: center; padding: 14px 0; background: var(--nav); backdrop-filter: blur(8px); }
.nav-actions { display: flex; gap: 12px; align-items: center; }
.lang-toggle { color: var(--accent); text-decoration: none; }
.cta { background: var(--cta-bg); color: var(--cta-text); border: 0; border-radius: 999px; padding: 8px 18px; cursor: pointer; font: inherit; }
.cta[disabled] { opacity: .5; cursor: wait; }
.warning { position: relative; z-index: 1; margin: 12px 0; padding: 10px 14px; border: 1px solid var(--accent); border-radius: 8px; }
.card { position: relative; z-index: 1; background: var(--card); border: 1px solid var(--border); border-radius: 16px; padding: 20px; }
.hero { position: relative; z-index: 1; padding: 32px 0; }
.hero-image { width: 100%; max-height: 320px; object-fit: cover; border-radius: 20px; }
.avatar { width: 96px; height: 96px; border-radius: 50%; object-fit: cover; border: 3px solid var(--accent); }
.student-title, .caption { color: var(--muted); }
.block-body { white-space: pre-line; line-height: 1.6; }
.section-title { position: relative; z-index: 1; }
.skill-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 20px; }
.skill-bar { margin: 10px 0; }
.skill-bar-head { display: flex; justify-content: space-between; }
.skill-track { height: 8px; background: var(--border); border-radius: 4px; overflow: hidden; }
.skill-fill { height: 100%; background: var(--accent); }
.skill-radar-wrap { display: flex; flex-wrap: wrap; gap: 12px; align-items: center; }
.skill-legend { list-style: none; padding: 0; margin: 0; }
.skill-gauges, .skill-stats { display: flex; flex-wrap: wrap; gap: 16px; }
.skill-gauge-cell { display: flex; flex-direction: column; align-items: center; }
.skill-stat { width: 120px; height: 96px; display: flex; flex-direction: column; justify-content: center; align-items: center; border: 1px solid var(--border); border-radius: 12px; }
.skill-stat .skill-value { font-size: 1.6em; color: var(--accent); }
.journey { position: relative; z-index: 1; }
.block { margin: 24px 0; }
.timeline-node { display: flex; gap: 16px; }
.timeline-dot { flex: none; width: 14px; height: 14px; margin-top: 24px; border-radius: 50%; background: var(--accent); }
.timeline-card { flex: 1; }
.date-badge { display: inline-block; padding: 2px 10px; border-radius: 999px; border: 1px solid var(--accent); color: var(--accent); font-size: .85em; }
.media-row { display: flex; flex-wrap: wrap; gap: 10px; margin-top: 12px; }
.media-image { width: 160px; height: 120px; object-fit: cover; border-radius: 10px; }
.embed-placeholder { display: inline-flex; gap: 8px; align-items: center; justify-content: center; width: 240px; height: 135px; border-radius: 10px; border: 1px dashed var(--accent); color: var(--accent); text-decoration: none; }
.media-embed iframe, .media-embed video { max-width: 100%; border: 0; border-radius: 10px; }
.bento { display: grid; gap: 10px; }
.bento-single { grid-template-columns: 1fr; }
.bento-single .frame-large { aspect-ratio: 16 / 9; }
.bento-trio { grid-template-columns: 2fr 1fr; }
.bento-trio .frame-large { aspect-ratio: 4 / 3; }
.bento-stack { display: grid; grid-template-rows: 1fr 1fr; gap: 10px; }
.bento-uniform { grid-template-columns: repeat(auto-fill, minmax(160px, 1fr)); }
.frame { margin: 0; overflow: hidden; border-radius: 12px; }
.frame-square { aspect-ratio: 1 / 1; }
.frame-image { width: 100%; height: 100%; object-fit: cover; display: block; }
.native-video { width: 100%; border-radius: 12px; }
.section-heading { display: flex; align-items: center; gap: 16px; }
.section-heading .rule { flex: 1; border: 0; border-top: 1px solid var(--border); }
.star-grid { display: grid; grid-template-columns: 1fr 1fr; grid-template-rows: auto auto; gap: 12px; margin-top: 12px; }
.star-panel { border-radius: 12px; padding: 14px; border: 1px solid var(--border); }
.star-situation { border-top: 4px solid #38bdf8; }
.star-task { border-top: 4px solid #a78bfa; }
.star-action { border-top: 4px solid #f59e0b; }
.star-result { border-top: 4px solid #34d399; }
.gate-wrap { min-height: 100vh; display: flex; align-items: center; justify-content: center; flex-direction: column; }
.gate { display: flex; flex-direction: column; gap: 12px; width: 320px; }
.gate input { padding: 10px; border-radius: 8px; border: 1px solid var(--border); font: inherit; }
.gate-error { color: #ef4444; margin: 0; }
`
