package render

import (
	"math"
	"strings"

	"golang.org/x/net/html"

	"kidsfolio/internal/portfolio"
)

// 雷达图与环形图的固定尺寸（SVG 用户坐标）。
const (
	radarSize   = 260.0
	radarRadius = 95.0
	gaugeSize   = 96.0
	gaugeRadius = 40.0
)

// RadarRings 是雷达图参考网格所在的半径比例。
var RadarRings = []float64{0.25, 0.5, 0.75, 1.0}

// Point 是 SVG 坐标系中的点（y 轴向下）。
type Point struct {
	X, Y float64
}

// RadarAngles 返回 n 条轴的角度（度），从正上方 0° 开始顺时针均分。
func RadarAngles(n int) []float64 {
	if n <= 0 {
		return nil
	}
	step := 360.0 / float64(n)
	angles := make([]float64, n)
	for i := range angles {
		angles[i] = step * float64(i)
	}
	return angles
}

// PolarPoint 把以正上方为 0°、顺时针的角度转换为 SVG 坐标。
func PolarPoint(cx, cy, radius, angleDeg float64) Point {
	rad := angleDeg * math.Pi / 180
	return Point{
		X: cx + radius*math.Sin(rad),
		Y: cy - radius*math.Cos(rad),
	}
}

// RadarPoints 返回各技能值（截断到 0–100）映射到半径上的多边形顶点。
func RadarPoints(items []portfolio.SkillItem, cx, cy, radius float64) []Point {
	angles := RadarAngles(len(items))
	points := make([]Point, len(items))
	for i, item := range items {
		points[i] = PolarPoint(cx, cy, radius*item.ClampedValue()/100, angles[i])
	}
	return points
}

// GaugeArc 返回环形进度的周长与 stroke-dashoffset，填充比例为 min(value,100)/100。
func GaugeArc(item portfolio.SkillItem, radius float64) (circumference, offset float64) {
	circumference = 2 * math.Pi * radius
	offset = circumference * (1 - item.ClampedValue()/100)
	return circumference, offset
}

func pointsAttr(points []Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatCoord(p.X) + "," + formatCoord(p.Y)
	}
	return strings.Join(parts, " ")
}

// SkillMatrix 渲染全部技能分组，每组按其实际展示方式输出一个区块。
func SkillMatrix(ctx Context, categories []portfolio.SkillCategory) []*html.Node {
	out := make([]*html.Node, 0, len(categories))
	for _, c := range categories {
		out = append(out, SkillCategory(ctx, c))
	}
	return out
}

// SkillCategory 渲染一个技能分组。
func SkillCategory(ctx Context, c portfolio.SkillCategory) *html.Node {
	layout := c.EffectiveLayout()
	n := element("div",
		class("card skill-category skill-"+string(layout)),
		attr("data-skill-layout", string(layout)),
	)
	if c.Name != "" {
		appendChildren(n, textElement("h3", "skill-category-name", c.Name))
	}

	switch layout {
	case portfolio.LayoutRadar:
		appendChildren(n, radarChart(ctx, c.Items))
	case portfolio.LayoutCircle:
		appendChildren(n, gauges(ctx, c.Items))
	case portfolio.LayoutStatGrid:
		appendChildren(n, statGrid(c.Items))
	default:
		appendChildren(n, bars(c.Items))
	}
	return n
}

// valueText 输出原始数值与单位，数值不截断。
func valueText(item portfolio.SkillItem) *html.Node {
	v := element("span", class("skill-value-wrap"))
	return appendChildren(v,
		textElement("span", "skill-value", item.DisplayValue()),
		textElement("span", "skill-unit", item.UnitOrDefault()),
	)
}

func bars(items []portfolio.SkillItem) *html.Node {
	list := element("div", class("skill-bars"))
	for _, item := range items {
		row := element("div", class("skill-bar"))
		head := element("div", class("skill-bar-head"))
		appendChildren(head, textElement("span", "skill-name", item.Name), valueText(item))

		track := element("div", class("skill-track"))
		appendChildren(track, element("div",
			class("skill-fill"),
			styleAttr("width: %s%%", formatNumber(item.BarFill())),
		))
		appendChildren(row, head, track)
		appendChildren(list, row)
	}
	return list
}

func radarChart(ctx Context, items []portfolio.SkillItem) *html.Node {
	c := radarSize / 2
	svg := svgElement("svg",
		class("skill-radar"),
		attr("viewBox", "0 0 "+formatNumber(radarSize)+" "+formatNumber(radarSize)),
		attr("width", formatNumber(radarSize)),
		attr("height", formatNumber(radarSize)),
	)

	angles := RadarAngles(len(items))
	for _, ring := range RadarRings {
		ringPoints := make([]Point, len(angles))
		for i, a := range angles {
			ringPoints[i] = PolarPoint(c, c, radarRadius*ring, a)
		}
		appendChildren(svg, svgElement("polygon",
			class("radar-ring"),
			attr("points", pointsAttr(ringPoints)),
			attr("fill", "none"),
			attr("stroke", ctx.Tokens.Border),
		))
	}

	for i, a := range angles {
		end := PolarPoint(c, c, radarRadius, a)
		appendChildren(svg, svgElement("line",
			class("radar-spoke"),
			attr("x1", formatCoord(c)), attr("y1", formatCoord(c)),
			attr("x2", formatCoord(end.X)), attr("y2", formatCoord(end.Y)),
			attr("stroke", ctx.Tokens.Border),
		))
		label := PolarPoint(c, c, radarRadius+18, a)
		appendChildren(svg, appendChildren(svgElement("text",
			class("radar-label"),
			attr("x", formatCoord(label.X)), attr("y", formatCoord(label.Y)),
			attr("text-anchor", "middle"),
			attr("fill", ctx.Tokens.Text),
		), textNode(items[i].Name)))
	}

	appendChildren(svg, svgElement("polygon",
		class("radar-area"),
		attr("points", pointsAttr(RadarPoints(items, c, c, radarRadius))),
		attr("fill", ctx.Tokens.Accent),
		attr("fill-opacity", "0.35"),
		attr("stroke", ctx.Tokens.Accent),
	))

	wrap := element("div", class("skill-radar-wrap"))
	appendChildren(wrap, svg)

	legend := element("ul", class("skill-legend"))
	for _, item := range items {
		li := element("li")
		appendChildren(li, textElement("span", "skill-name", item.Name), valueText(item))
		appendChildren(legend, li)
	}
	return appendChildren(wrap, legend)
}

func gauges(ctx Context, items []portfolio.SkillItem) *html.Node {
	list := element("div", class("skill-gauges"))
	c := gaugeSize / 2
	for _, item := range items {
		circumference, offset := GaugeArc(item, gaugeRadius)

		svg := svgElement("svg",
			class("skill-gauge"),
			attr("viewBox", "0 0 "+formatNumber(gaugeSize)+" "+formatNumber(gaugeSize)),
			attr("width", formatNumber(gaugeSize)),
			attr("height", formatNumber(gaugeSize)),
		)
		appendChildren(svg,
			svgElement("circle",
				class("gauge-track"),
				attr("cx", formatCoord(c)), attr("cy", formatCoord(c)), attr("r", formatCoord(gaugeRadius)),
				attr("fill", "none"), attr("stroke", ctx.Tokens.Border), attr("stroke-width", "8"),
			),
			svgElement("circle",
				class("gauge-arc"),
				attr("cx", formatCoord(c)), attr("cy", formatCoord(c)), attr("r", formatCoord(gaugeRadius)),
				attr("fill", "none"), attr("stroke", ctx.Tokens.Accent), attr("stroke-width", "8"),
				attr("stroke-linecap", "round"),
				attr("stroke-dasharray", formatCoord(circumference)),
				attr("stroke-dashoffset", formatCoord(offset)),
				// 从 12 点方向开始绘制
				attr("transform", "rotate(-90 "+formatCoord(c)+" "+formatCoord(c)+")"),
			),
		)

		cell := element("div", class("skill-gauge-cell"))
		appendChildren(cell, svg, valueText(item), textElement("span", "skill-name", item.Name))
		appendChildren(list, cell)
	}
	return list
}

func statGrid(items []portfolio.SkillItem) *html.Node {
	grid := element("div", class("skill-stats"))
	for _, item := range items {
		card := element("div", class("skill-stat"))
		appendChildren(card, valueText(item), textElement("span", "skill-name", item.Name))
		appendChildren(grid, card)
	}
	return grid
}
