package render

import (
	"strings"

	"golang.org/x/net/html"

	"kidsfolio/internal/i18n"
	"kidsfolio/internal/portfolio"
)

func testContext() Context {
	return Context{
		Tokens: portfolio.ResolveTheme("tech_dark"),
		Labels: i18n.MustNewBundle(i18n.LangEN).For(i18n.LangEN),
		Slug:   "amy-chen",
	}
}

// findAll 深度优先收集满足条件的元素，按文档顺序返回。
func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur == nil {
			return
		}
		if cur.Type == html.ElementNode && pred(cur) {
			out = append(out, cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func hasClass(name string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, _ := getAttr(n, "class")
		for _, c := range strings.Fields(v) {
			if c == name {
				return true
			}
		}
		return false
	}
}

func hasAttr(key string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		_, ok := getAttr(n, key)
		return ok
	}
}

func tagIs(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag }
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// getAttr 返回节点上的属性值。
func getAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
