// Package render 把作品集视图转换为 HTML 节点树。
// 所有函数都是纯函数：同样的输入得到同样的节点树，不读写任何外部状态。
package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// svgElement 创建 SVG 命名空间下的元素。
func svgElement(tag string, attrs ...html.Attribute) *html.Node {
	n := element(tag, attrs...)
	n.Namespace = "svg"
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// appendChildren 依次追加子节点，nil 会被跳过。
func appendChildren(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		parent.AppendChild(c)
	}
	return parent
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func class(v string) html.Attribute {
	return attr("class", v)
}

func styleAttr(format string, args ...any) html.Attribute {
	return attr("style", fmt.Sprintf(format, args...))
}

// textElement 创建只包含一段文本的元素。
func textElement(tag, cls, text string) *html.Node {
	n := element(tag, class(cls))
	n.AppendChild(textNode(text))
	return n
}

// rawFragment 把一段（已清洗的）HTML 解析成节点列表。
func rawFragment(markup string) []*html.Node {
	context := element("div")
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil
	}
	return nodes
}

// Render 把节点树写出为 HTML。
func Render(w io.Writer, n *html.Node) error {
	if n == nil {
		return nil
	}
	return html.Render(w, n)
}

// RenderString 用于片段接口与测试。
func RenderString(n *html.Node) string {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
