package render

import (
	"fmt"
	"net/url"

	"golang.org/x/net/html"

	"kidsfolio/internal/i18n"
	"kidsfolio/internal/portfolio"
)

// SnapshotExcludeAttr 标记不应出现在导出图片中的元素。
const SnapshotExcludeAttr = "data-snapshot-exclude"

// RootID 是作品集主体容器的 id，导出截图以它为范围。
const RootID = "portfolio-root"

const htmxSrc = "https://unpkg.com/htmx.org@1.9.12"

// exportScript 打开通知 WebSocket，收到 subscribed 后触发 hx-post，完成后跳转到下载地址。
const exportScript = `(function () {
  var btn = document.currentScript.previousElementSibling;
  if (!btn || !window.WebSocket) return;
  btn.addEventListener('click', function () {
    var path = btn.getAttribute('data-export-ws');
    if (!path) { htmx.trigger(btn, 'export-ready'); return; }
    var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    var ws = new WebSocket(proto + location.host + path);
    var fail = function () { ws.close(); alert(btn.getAttribute('data-export-error')); };
    ws.onerror = fail;
    ws.onmessage = function (ev) {
      var msg = {};
      try { msg = JSON.parse(ev.data); } catch (e) { return; }
      if (msg.status === 'subscribed') { htmx.trigger(btn, 'export-ready'); return; }
      if (msg.status === 'completed' && msg.url) { ws.close(); window.location.href = msg.url; return; }
      if (msg.status === 'error') { fail(); }
    };
  });
  btn.addEventListener('htmx:responseError', function (ev) {
    if (ev.detail.xhr.status !== 409) alert(btn.getAttribute('data-export-error'));
  });
})();`

// PageOptions 控制页面外围的交互元素。
type PageOptions struct {
	// AltLang 是语言切换按钮指向的语言，为空时不显示切换按钮。
	AltLang string
	// Warning 非空时在页面顶部显示提示条（例如翻译不可用）。
	Warning string
	// SnapshotURL 是导出按钮提交的地址，为空时不显示导出按钮。
	SnapshotURL string
	// NotifyURL 是导出结果推送的 WebSocket 路径。
	NotifyURL string
}

// Page 渲染完整的作品集页面。
func Page(ctx Context, v portfolio.View, opts PageOptions) *html.Node {
	doc, bodyNode := document(ctx.Tokens, ctx.lang(), v.StudentName, !ctx.Snapshot)

	root := element("div", attr("id", RootID), class("portfolio theme-"+string(ctx.Tokens.Theme)))
	appendChildren(root,
		element("div", class("blob blob-a"), attr("aria-hidden", "true")),
		element("div", class("blob blob-b"), attr("aria-hidden", "true")),
		nav(ctx, v, opts),
	)
	if opts.Warning != "" {
		warning := element("div", class("warning"), attr("role", "alert"), attr(SnapshotExcludeAttr, ""))
		appendChildren(root, appendChildren(warning, textNode(opts.Warning)))
	}

	appendChildren(root, hero(v))

	if len(v.Skills) > 0 {
		skills := element("section", class("skills"), attr("id", "skills"))
		appendChildren(skills, textElement("h2", "section-title", ctx.label(i18n.KeySkills)))
		grid := element("div", class("skill-grid"))
		appendChildren(grid, SkillMatrix(ctx, v.Skills)...)
		appendChildren(root, appendChildren(skills, grid))
	}

	if len(v.Blocks) > 0 {
		journey := element("section", class("journey"), attr("id", "journey"))
		appendChildren(journey, textElement("h2", "section-title", ctx.label(i18n.KeyJourney)))
		appendChildren(journey, Blocks(ctx, v.Blocks)...)
		appendChildren(root, journey)
	}

	appendChildren(bodyNode, root)
	return doc
}

func nav(ctx Context, v portfolio.View, opts PageOptions) *html.Node {
	n := element("nav", class("topnav"))
	appendChildren(n, textElement("span", "brand", v.StudentName))

	actions := element("div", class("nav-actions"), attr(SnapshotExcludeAttr, ""))
	if opts.AltLang != "" {
		q := url.Values{}
		q.Set("lang", opts.AltLang)
		link := element("a", class("lang-toggle"), attr("href", "?"+q.Encode()))
		appendChildren(link, textNode(ctx.label(i18n.KeySwitchLanguage)))
		appendChildren(actions, link)
	}
	if opts.SnapshotURL != "" && !ctx.Snapshot {
		// 先订阅推送再提交导出，避免错过完成消息
		button := element("button",
			class("cta export"),
			attr("type", "button"),
			attr("hx-post", opts.SnapshotURL),
			attr("hx-trigger", "export-ready"),
			attr("hx-swap", "none"),
			attr("hx-disabled-elt", "this"),
			attr("data-export-ws", opts.NotifyURL),
			attr("data-export-error", ctx.label(i18n.KeyExportFailed)),
		)
		appendChildren(button, textNode(ctx.label(i18n.KeyExport)))
		script := element("script")
		script.AppendChild(textNode(exportScript))
		appendChildren(actions, button, script)
	}
	return appendChildren(n, actions)
}

func hero(v portfolio.View) *html.Node {
	n := element("header", class("hero"))
	if v.HeroImageURL != "" {
		appendChildren(n, image(v.HeroImageURL, "hero-image"))
	}
	profile := element("div", class("profile"))
	if v.AvatarURL != "" {
		appendChildren(profile, image(v.AvatarURL, "avatar"))
	}
	appendChildren(profile, textElement("h1", "student-name", v.StudentName))
	if v.StudentTitle != "" {
		appendChildren(profile, textElement("p", "student-title", v.StudentTitle))
	}
	if v.SummaryBio != "" {
		appendChildren(profile, textElement("p", "block-body bio", v.SummaryBio))
	}
	return appendChildren(n, profile)
}

// GatePage 渲染访问密码表单；failed 为 true 时显示错误提示。
func GatePage(tokens portfolio.Tokens, labels i18n.Labels, slug string, failed bool) *html.Node {
	doc, bodyNode := document(tokens, labels.Lang(), labels.T(i18n.KeyGateTitle), false)

	form := element("form",
		class("card gate"),
		attr("method", "post"),
		attr("action", fmt.Sprintf("/p/%s/unlock?lang=%s", url.PathEscape(slug), url.QueryEscape(labels.Lang()))),
	)
	appendChildren(form,
		textElement("h1", "gate-title", labels.T(i18n.KeyGateTitle)),
		element("input",
			attr("type", "password"),
			attr("name", "password"),
			attr("placeholder", labels.T(i18n.KeyGatePlaceholder)),
			attr("autocomplete", "off"),
			attr("required", ""),
		),
	)
	if failed {
		msg := textElement("p", "gate-error", labels.T(i18n.KeyGateError))
		msg.Attr = append(msg.Attr, attr("data-gate-error", ""), attr("role", "alert"))
		appendChildren(form, msg)
	}
	submit := element("button", class("cta"), attr("type", "submit"))
	appendChildren(submit, textNode(labels.T(i18n.KeyGateSubmit)))
	appendChildren(form, submit)

	wrap := element("main", class("gate-wrap"))
	appendChildren(bodyNode, appendChildren(wrap, form))
	return doc
}

// NotFoundPage 渲染作品集不存在的提示页。
func NotFoundPage(labels i18n.Labels) *html.Node {
	tokens := portfolio.ResolveTheme("")
	doc, bodyNode := document(tokens, labels.Lang(), labels.T(i18n.KeyNotFound), false)
	wrap := element("main", class("gate-wrap"))
	appendChildren(wrap, textElement("h1", "not-found", labels.T(i18n.KeyNotFound)))
	appendChildren(bodyNode, wrap)
	return doc
}

// document 构造 <!DOCTYPE html><html><head/><body/></html>，返回文档节点与 body。
func document(tokens portfolio.Tokens, lang, title string, withHTMX bool) (*html.Node, *html.Node) {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element("html")
	if lang != "" {
		root.Attr = append(root.Attr, attr("lang", lang))
	}

	head := element("head")
	appendChildren(head,
		element("meta", attr("charset", "utf-8")),
		element("meta", attr("name", "viewport"), attr("content", "width=device-width, initial-scale=1")),
		appendChildren(element("title"), textNode(title)),
	)
	styleNode := element("style")
	styleNode.AppendChild(textNode(Stylesheet(tokens)))
	appendChildren(head, styleNode)
	if withHTMX {
		appendChildren(head, element("script", attr("src", htmxSrc), attr("defer", "")))
	}

	bodyNode := element("body")
	appendChildren(root, head, bodyNode)
	doc.AppendChild(root)
	return doc, bodyNode
}
