package render

import (
	"net/url"

	"golang.org/x/net/html"

	"kidsfolio/internal/i18n"
	"kidsfolio/internal/portfolio"
)

// Grid layouts chosen by image count.
const (
	GridSingle  = "single"
	GridTrio    = "trio"
	GridUniform = "uniform"
)

// GridLayout 按图片数量选择图片墙布局：1 张单图，3 张一大两小，其余数量统一方格。
func GridLayout(count int) string {
	switch count {
	case 1:
		return GridSingle
	case 3:
		return GridTrio
	default:
		return GridUniform
	}
}

// Block 渲染单个内容块，未知类型返回 nil。position 是块在列表中的下标，块没有 id 时用它生成键。
func Block(ctx Context, b portfolio.Block, position int) *html.Node {
	key := portfolio.BlockKey(b, position)
	switch v := b.(type) {
	case portfolio.TimelineNode:
		return timelineNode(ctx, key, v)
	case portfolio.TextBlock:
		return textBlock(ctx, key, v)
	case portfolio.ImageGrid:
		return imageGrid(ctx, key, v)
	case portfolio.VideoBlock:
		return videoBlock(ctx, key, v)
	case portfolio.SectionHeading:
		return sectionHeading(ctx, key, v)
	case portfolio.ProjectHighlight:
		return projectHighlight(ctx, key, v)
	case portfolio.UnknownBlock:
		return nil
	default:
		return nil
	}
}

// Blocks 依次渲染全部内容块。
func Blocks(ctx Context, blocks []portfolio.Block) []*html.Node {
	out := make([]*html.Node, 0, len(blocks))
	for i, b := range blocks {
		if n := Block(ctx, b, i); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func blockShell(key string, b portfolio.Block, cls string) *html.Node {
	return element("section",
		class("block "+cls),
		attr("id", "block-"+key),
		attr("data-block", string(b.Type())),
	)
}

func optionalTitle(tag, title string) *html.Node {
	if title == "" {
		return nil
	}
	return textElement(tag, "block-title", title)
}

// body 保留作者输入的换行（CSS pre-line），不做 markdown 处理。
func body(content string) *html.Node {
	if content == "" {
		return nil
	}
	return textElement("p", "block-body", content)
}

func image(src, cls string) *html.Node {
	return element("img", class(cls), attr("src", src), attr("loading", "lazy"), attr("alt", ""))
}

func timelineNode(ctx Context, key string, b portfolio.TimelineNode) *html.Node {
	n := blockShell(key, b, "timeline-node")
	appendChildren(n, element("span", class("timeline-dot")))

	card := element("div", class("card timeline-card"))
	if b.Date != "" {
		appendChildren(card, textElement("span", "date-badge", b.Date))
	}
	appendChildren(card, optionalTitle("h3", b.Title), body(b.Content))

	if len(b.Media) > 0 {
		row := element("div", class("media-row"))
		state := ctx.embedState(key)
		for i, m := range b.Media {
			appendChildren(row, timelineMedia(ctx, key, i, m, state.Active(i)))
		}
		appendChildren(card, row)
	}

	return appendChildren(n, card)
}

// timelineMedia 图片直接显示；内嵌代码先显示占位按钮，用户点击后才替换为真实内嵌内容。
func timelineMedia(ctx Context, blockID string, index int, m portfolio.MediaItem, active bool) *html.Node {
	if m.Kind == portfolio.MediaImage {
		return image(m.Value, "media-image")
	}
	if active {
		return EmbedFragment(ctx, m.Value)
	}

	lang := ctx.lang()
	query := url.Values{}
	query.Set("play", PlayParam(blockID, index))
	if lang != "" {
		query.Set("lang", lang)
	}

	placeholder := element("a",
		class("embed-placeholder"),
		attr("href", "?"+query.Encode()),
		attr("hx-get", ActivateURL(ctx.Slug, blockID, index, lang)),
		attr("hx-target", "this"),
		attr("hx-swap", "outerHTML"),
		attr("data-embed-index", formatNumber(float64(index))),
	)
	appendChildren(placeholder,
		textElement("span", "play-icon", "▶"),
		textElement("span", "play-label", ctx.label(i18n.KeyPlay)),
	)
	return placeholder
}

// EmbedFragment 把内嵌代码清洗后包装为可直接插入页面的节点。
func EmbedFragment(ctx Context, markup string) *html.Node {
	wrapper := element("div", class("media-embed"))
	for _, child := range rawFragment(ctx.sanitize(markup)) {
		wrapper.AppendChild(child)
	}
	return wrapper
}

func textBlock(_ Context, key string, b portfolio.TextBlock) *html.Node {
	n := blockShell(key, b, "text-block card")
	return appendChildren(n, optionalTitle("h3", b.Title), body(b.Content))
}

func imageGrid(_ Context, key string, b portfolio.ImageGrid) *html.Node {
	n := blockShell(key, b, "image-grid")
	appendChildren(n, optionalTitle("h3", b.Title))

	layout := GridLayout(len(b.URLs))
	grid := element("div", class("bento bento-"+layout), attr("data-layout", layout))
	switch layout {
	case GridSingle:
		appendChildren(grid, frame(b.URLs[0], "frame frame-large"))
	case GridTrio:
		stack := element("div", class("bento-stack"))
		appendChildren(stack,
			frame(b.URLs[1], "frame frame-small"),
			frame(b.URLs[2], "frame frame-small"),
		)
		appendChildren(grid, frame(b.URLs[0], "frame frame-large"), stack)
	default:
		for _, u := range b.URLs {
			appendChildren(grid, frame(u, "frame frame-square"))
		}
	}
	appendChildren(n, grid)

	if b.Caption != "" {
		appendChildren(n, textElement("p", "caption", b.Caption))
	}
	return n
}

func frame(src, cls string) *html.Node {
	f := element("figure", class(cls))
	return appendChildren(f, image(src, "frame-image"))
}

// videoBlock 内嵌代码直接渲染（不经过点击激活），普通地址使用原生播放器。
func videoBlock(ctx Context, key string, b portfolio.VideoBlock) *html.Node {
	n := blockShell(key, b, "video-block card")
	appendChildren(n, optionalTitle("h3", b.Title))

	switch {
	case b.Source.Value == "":
	case b.Source.Kind == portfolio.MediaEmbed:
		appendChildren(n, EmbedFragment(ctx, b.Source.Value))
	default:
		appendChildren(n, element("video",
			class("native-video"),
			attr("src", b.Source.Value),
			attr("controls", ""),
			attr("preload", "metadata"),
		))
	}

	if b.Caption != "" {
		appendChildren(n, textElement("p", "caption", b.Caption))
	}
	return n
}

func sectionHeading(_ Context, key string, b portfolio.SectionHeading) *html.Node {
	n := blockShell(key, b, "section-heading")
	return appendChildren(n,
		element("hr", class("rule")),
		textElement("h2", "section-title", b.Title),
		element("hr", class("rule")),
	)
}

// STARKeys 是 STAR 四个面板的固定顺序。
var STARKeys = []string{i18n.KeySituation, i18n.KeyTask, i18n.KeyAction, i18n.KeyResult}

func projectHighlight(ctx Context, key string, b portfolio.ProjectHighlight) *html.Node {
	n := blockShell(key, b, "project-highlight card")

	header := element("header", class("highlight-header"))
	appendChildren(header, optionalTitle("h3", b.Title))
	if b.Date != "" {
		appendChildren(header, textElement("span", "date-badge", b.Date))
	}
	appendChildren(n, header)

	texts := []string{b.STAR.Situation, b.STAR.Task, b.STAR.Action, b.STAR.Result}
	quad := element("div", class("star-grid"))
	for i, part := range STARKeys {
		panel := element("div", class("star-panel star-"+part), attr("data-star", part))
		appendChildren(panel,
			textElement("h4", "star-label", ctx.label(part)),
			textElement("p", "block-body", texts[i]),
		)
		appendChildren(quad, panel)
	}
	appendChildren(n, quad)

	if len(b.EvidenceURLs) > 0 {
		evidence := element("div", class("evidence"))
		appendChildren(evidence, textElement("h4", "evidence-label", ctx.label(i18n.KeyEvidence)))
		grid := element("div", class("bento bento-uniform"), attr("data-layout", GridUniform))
		for _, u := range b.EvidenceURLs {
			appendChildren(grid, frame(u, "frame frame-square"))
		}
		appendChildren(evidence, grid)
		appendChildren(n, evidence)
	}
	return n
}
