package render

import (
	"github.com/microcosm-cc/bluemonday"
)

// EmbedState 记录一个内容块里哪些媒体项已被激活，键为媒体项下标。
// 每个内容块各自持有一份，媒体项互不影响。
type EmbedState map[int]bool

// Active 报告第 index 个媒体项是否已激活。
func (s EmbedState) Active(index int) bool {
	return s != nil && s[index]
}

// NewEmbedPolicy 返回内嵌代码的清洗规则：只保留 iframe / video 等播放器相关的元素与属性。
func NewEmbedPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("iframe", "video", "source")
	p.AllowAttrs("src", "width", "height", "frameborder", "allow", "allowfullscreen", "title", "referrerpolicy", "loading").
		OnElements("iframe")
	p.AllowAttrs("src", "controls", "poster", "width", "height", "preload").OnElements("video")
	p.AllowAttrs("src", "type").OnElements("source")
	p.RequireParseableURLs(true)
	return p
}
