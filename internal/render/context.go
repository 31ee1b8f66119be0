package render

import (
	"fmt"
	"net/url"

	"github.com/microcosm-cc/bluemonday"

	"kidsfolio/internal/i18n"
	"kidsfolio/internal/portfolio"
)

// Context 是一次页面渲染共享的只读参数，主题样式在页面开始时解析一次后按值传入。
type Context struct {
	Tokens   portfolio.Tokens
	Labels   i18n.Labels
	Slug     string
	Embeds   map[string]EmbedState
	Policy   *bluemonday.Policy
	Snapshot bool
}

// embedState 返回某个内容块的激活状态。
func (c Context) embedState(blockID string) EmbedState {
	if c.Embeds == nil {
		return nil
	}
	return c.Embeds[blockID]
}

func (c Context) label(key string) string {
	if c.Labels == nil {
		return key
	}
	return c.Labels.T(key)
}

func (c Context) lang() string {
	if c.Labels == nil {
		return ""
	}
	return c.Labels.Lang()
}

// sanitize 清洗内嵌代码；未配置规则时使用默认规则。
func (c Context) sanitize(markup string) string {
	policy := c.Policy
	if policy == nil {
		policy = NewEmbedPolicy()
	}
	return policy.Sanitize(markup)
}

// ActivateURL 是激活某个媒体项的片段接口地址。
func ActivateURL(slug, blockID string, index int, lang string) string {
	u := fmt.Sprintf("/p/%s/blocks/%s/media/%d", url.PathEscape(slug), url.PathEscape(blockID), index)
	if lang != "" {
		u += "?lang=" + url.QueryEscape(lang)
	}
	return u
}

// PlayParam 是无脚本环境下激活媒体项使用的查询参数值，形如 "<blockID>:<index>"。
func PlayParam(blockID string, index int) string {
	return fmt.Sprintf("%s:%d", blockID, index)
}
