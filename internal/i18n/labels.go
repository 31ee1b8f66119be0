// Package i18n 提供作品集页面的界面文案（不含作品集内容本身）。
package i18n

import (
	"fmt"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
)

const (
	LangEN = "en"
	LangZH = "zh"
)

// 文案键。
const (
	KeySkills             = "skills"
	KeyJourney            = "journey"
	KeySituation          = "situation"
	KeyTask               = "task"
	KeyAction             = "action"
	KeyResult             = "result"
	KeyEvidence           = "evidence"
	KeyPlay               = "play"
	KeyExport             = "export"
	KeyExportFailed       = "export_failed"
	KeyGateTitle          = "gate_title"
	KeyGatePlaceholder    = "gate_placeholder"
	KeyGateSubmit         = "gate_submit"
	KeyGateError          = "gate_error"
	KeyNotFound           = "not_found"
	KeyTranslationWarning = "translation_warning"
	KeySwitchLanguage     = "switch_language"
)

var catalog = map[string]map[string]string{
	LangEN: {
		KeySkills:             "Skill Matrix",
		KeyJourney:            "Learning Journey",
		KeySituation:          "Situation",
		KeyTask:               "Task",
		KeyAction:             "Action",
		KeyResult:             "Result",
		KeyEvidence:           "Evidence",
		KeyPlay:               "Play",
		KeyExport:             "Save as image",
		KeyExportFailed:       "Export failed, please try again.",
		KeyGateTitle:          "This portfolio is private",
		KeyGatePlaceholder:    "Access password",
		KeyGateSubmit:         "Unlock",
		KeyGateError:          "Incorrect password, please try again.",
		KeyNotFound:           "Portfolio not found.",
		KeyTranslationWarning: "Translation is unavailable right now; content is shown in its original language.",
		KeySwitchLanguage:     "中文",
	},
	LangZH: {
		KeySkills:             "技能矩阵",
		KeyJourney:            "成长轨迹",
		KeySituation:          "情境",
		KeyTask:               "任务",
		KeyAction:             "行动",
		KeyResult:             "结果",
		KeyEvidence:           "成果佐证",
		KeyPlay:               "播放",
		KeyExport:             "保存为图片",
		KeyExportFailed:       "导出失败，请稍后重试。",
		KeyGateTitle:          "该作品集需要访问密码",
		KeyGatePlaceholder:    "访问密码",
		KeyGateSubmit:         "进入",
		KeyGateError:          "密码错误，请重试。",
		KeyNotFound:           "未找到该作品集。",
		KeyTranslationWarning: "暂时无法翻译，内容以原语言显示。",
		KeySwitchLanguage:     "English",
	},
}

// Labels 是某一种语言的界面文案。
type Labels interface {
	Lang() string
	T(key string) string
}

// Bundle 持有全部语言的文案。
type Bundle struct {
	uni      *ut.UniversalTranslator
	fallback string
}

// NewBundle 注册全部文案，fallback 为未知语言时使用的语言。
func NewBundle(fallback string) (*Bundle, error) {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale, zh.New())

	for lang, entries := range catalog {
		trans, found := uni.GetTranslator(lang)
		if !found {
			return nil, fmt.Errorf("translator for %q not registered", lang)
		}
		for key, text := range entries {
			if err := trans.Add(key, text, false); err != nil {
				return nil, fmt.Errorf("add label %s/%s: %w", lang, key, err)
			}
		}
	}

	if !Supported(fallback) {
		fallback = LangEN
	}
	return &Bundle{uni: uni, fallback: fallback}, nil
}

// MustNewBundle 包装 NewBundle，失败时 panic。
func MustNewBundle(fallback string) *Bundle {
	b, err := NewBundle(fallback)
	if err != nil {
		panic(err)
	}
	return b
}

// Supported 报告是否有该语言的文案。
func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}

// For 返回指定语言的文案，不支持的语言使用 fallback。
func (b *Bundle) For(lang string) Labels {
	if !Supported(lang) {
		lang = b.fallback
	}
	trans, _ := b.uni.GetTranslator(lang)
	return labels{lang: lang, trans: trans}
}

type labels struct {
	lang  string
	trans ut.Translator
}

func (l labels) Lang() string { return l.lang }

// T 缺失的键原样返回，方便在页面上发现遗漏。
func (l labels) T(key string) string {
	text, err := l.trans.T(key)
	if err != nil || text == "" {
		return key
	}
	return text
}
