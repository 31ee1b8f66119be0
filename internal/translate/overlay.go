// Package translate 生成作品集的目标语言副本。
// 译文只覆盖文本字段，id、类型、链接、数值与顺序都与源保持一致，源视图不被修改。
package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"kidsfolio/internal/metrics"
	"kidsfolio/internal/portfolio"
)

const (
	defaultCacheTTL    = 7 * 24 * time.Hour
	defaultCallTimeout = 60 * time.Second
)

var languageNames = map[string]string{
	"en": "English",
	"zh": "Simplified Chinese",
}

// Overlay 协调模型调用、缓存与并发去重。零值不可用，请使用 NewOverlay。
type Overlay struct {
	completer Completer
	cache     Cache
	ttl       time.Duration
	timeout   time.Duration
	version   string
	logger    *slog.Logger
	group     singleflight.Group
}

// Option 调整 Overlay 的可选参数。
type Option func(*Overlay)

// WithCacheTTL 设置译文缓存时长。
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *Overlay) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithCallTimeout 限制一次共享模型调用的时长。
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *Overlay) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithVersion 把模型名等信息纳入缓存键，切换模型后旧译文自然失效。
func WithVersion(version string) Option {
	return func(o *Overlay) { o.version = version }
}

// WithLogger 设置日志输出。
func WithLogger(logger *slog.Logger) Option {
	return func(o *Overlay) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOverlay completer 为 nil 时 Overlay 始终返回 ErrUnavailable；cache 可以为 nil。
func NewOverlay(completer Completer, cache Cache, opts ...Option) *Overlay {
	o := &Overlay{
		completer: completer,
		cache:     cache,
		ttl:       defaultCacheTTL,
		timeout:   defaultCallTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Available 报告是否配置了翻译能力。
func (o *Overlay) Available() bool {
	return o != nil && o.completer != nil
}

// Translate 返回 v 的 lang 语言副本。同一份内容、同一语言只会调用一次模型，
// 之后的切换直接命中缓存；并发请求共享同一次调用。
func (o *Overlay) Translate(ctx context.Context, v portfolio.View, lang string) (portfolio.View, error) {
	if !o.Available() {
		return portfolio.View{}, ErrUnavailable
	}
	langName, ok := languageNames[lang]
	if !ok {
		return portfolio.View{}, fmt.Errorf("%w: unsupported language %q", ErrUnavailable, lang)
	}

	source, err := json.Marshal(extract(v))
	if err != nil {
		return portfolio.View{}, fmt.Errorf("encode translation source: %w", err)
	}
	key := cacheKey(v.Slug, lang, o.version, source)
	logger := o.logger.With(slog.String("slug", v.Slug), slog.String("lang", lang))

	if payload, ok := o.lookup(ctx, key, logger); ok {
		if out, err := decodeAndApply(v, payload); err == nil {
			metrics.ObserveTranslation(metrics.TranslationCacheHit)
			return out, nil
		}
		logger.Warn("discarding unusable cached translation", slog.String("key", key))
	}

	// 共享调用与发起请求的取消解耦，只受 o.timeout 限制
	result, err, shared := o.group.Do(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
		defer cancel()
		return o.complete(callCtx, v, langName, source, key, logger)
	})
	if err != nil {
		metrics.ObserveTranslation(resultLabel(err))
		logger.Warn("translation failed", slog.Any("error", err))
		return portfolio.View{}, err
	}
	if !shared {
		metrics.ObserveTranslation(metrics.TranslationCompleted)
	}
	return decodeAndApply(v, result.([]byte))
}

func (o *Overlay) lookup(ctx context.Context, key string, logger *slog.Logger) ([]byte, bool) {
	if o.cache == nil {
		return nil, false
	}
	payload, ok, err := o.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("translation cache read failed", slog.Any("error", err))
		return nil, false
	}
	return payload, ok
}

func (o *Overlay) complete(ctx context.Context, v portfolio.View, langName string, source []byte, key string, logger *slog.Logger) ([]byte, error) {
	start := time.Now()
	reply, err := o.completer.Complete(ctx, systemPrompt(langName), string(source))
	if err != nil {
		return nil, err
	}

	payload := []byte(stripCodeFence(reply))
	// 写缓存前先校验结构，坏结果不进入缓存
	if _, err := decodeAndApply(v, payload); err != nil {
		return nil, err
	}

	if o.cache != nil {
		if err := o.cache.Set(ctx, key, payload, o.ttl); err != nil {
			logger.Warn("translation cache write failed", slog.Any("error", err))
		}
	}
	logger.Info("translation completed", slog.Duration("latency", time.Since(start)))
	return payload, nil
}

func decodeAndApply(v portfolio.View, payload []byte) (portfolio.View, error) {
	var doc document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return portfolio.View{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return apply(v, doc)
}

func cacheKey(slug, lang, version string, source []byte) string {
	sum := sha256.Sum256(source)
	return fmt.Sprintf("%s:%s:%s:%s", slug, lang, version, hex.EncodeToString(sum[:12]))
}

func resultLabel(err error) string {
	if errors.Is(err, ErrMalformed) {
		return metrics.TranslationMalformed
	}
	return metrics.TranslationUnavailable
}

func systemPrompt(langName string) string {
	return "You translate portfolio content for a children's technology school. " +
		"Translate every string value of the user's JSON document into " + langName + ". " +
		"Keep the JSON structure, keys, array lengths and ordering exactly as given. " +
		"Never change \"id\" values and never add or remove fields. " +
		"Reply with the JSON object only."
}
