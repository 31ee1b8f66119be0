package portfolio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BlockType 是内容块的类型标签（存储在 content_blocks[].type）。
type BlockType string

const (
	// BlockHeader 是 timeline_node 的旧名，读取时按时间线节点渲染，写回时保持原标签。
	BlockHeader           BlockType = "header"
	BlockTimelineNode     BlockType = "timeline_node"
	BlockText             BlockType = "text"
	BlockImageGrid        BlockType = "image_grid"
	BlockVideo            BlockType = "video"
	BlockSectionHeading   BlockType = "section_heading"
	BlockProjectHighlight BlockType = "project_highlight"
)

// Block 是封闭的内容块联合类型，只有本包内定义的结构体可以实现它。
type Block interface {
	BlockID() string
	Type() BlockType
	isBlock()
}

// MediaKind 区分 urls 中的图片地址与内嵌代码。
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaEmbed MediaKind = "embed"
)

// MediaItem 是一条已分类的媒体引用。
type MediaItem struct {
	Kind  MediaKind
	Value string
}

// ClassifyMedia 按存储约定分类：以 "<" 开头的是内嵌代码，其余都是图片地址。
func ClassifyMedia(raw string) MediaItem {
	if strings.HasPrefix(strings.TrimSpace(raw), "<") {
		return MediaItem{Kind: MediaEmbed, Value: raw}
	}
	return MediaItem{Kind: MediaImage, Value: raw}
}

// TimelineNode 渲染为时间线上的一个节点：日期徽标、标题、正文与媒体行。
type TimelineNode struct {
	ID      string
	Legacy  bool
	Date    string
	Title   string
	Content string
	Media   []MediaItem
}

// TextBlock 是纯文本段落，正文保留作者输入的换行。
type TextBlock struct {
	ID      string
	Title   string
	Content string
}

// ImageGrid 是按图片数量选择布局的图片墙。
type ImageGrid struct {
	ID      string
	Title   string
	URLs    []string
	Caption string
}

// VideoBlock 只使用 urls[0]。
type VideoBlock struct {
	ID      string
	Title   string
	Source  MediaItem
	Caption string
}

type SectionHeading struct {
	ID    string
	Title string
}

// STAR 是项目亮点的四段式叙述。
type STAR struct {
	Situation string
	Task      string
	Action    string
	Result    string
}

type ProjectHighlight struct {
	ID           string
	Title        string
	Date         string
	STAR         STAR
	EvidenceURLs []string
}

// UnknownBlock 保留无法识别的块，渲染为空，写回时原样输出。
type UnknownBlock struct {
	ID      string
	RawType string
	Raw     json.RawMessage
}

func (b TimelineNode) BlockID() string     { return b.ID }
func (b TextBlock) BlockID() string        { return b.ID }
func (b ImageGrid) BlockID() string        { return b.ID }
func (b VideoBlock) BlockID() string       { return b.ID }
func (b SectionHeading) BlockID() string   { return b.ID }
func (b ProjectHighlight) BlockID() string { return b.ID }
func (b UnknownBlock) BlockID() string     { return b.ID }

func (b TimelineNode) Type() BlockType {
	if b.Legacy {
		return BlockHeader
	}
	return BlockTimelineNode
}
func (TextBlock) Type() BlockType        { return BlockText }
func (ImageGrid) Type() BlockType        { return BlockImageGrid }
func (VideoBlock) Type() BlockType       { return BlockVideo }
func (SectionHeading) Type() BlockType   { return BlockSectionHeading }
func (ProjectHighlight) Type() BlockType { return BlockProjectHighlight }
func (b UnknownBlock) Type() BlockType   { return BlockType(b.RawType) }

func (TimelineNode) isBlock()     {}
func (TextBlock) isBlock()        {}
func (ImageGrid) isBlock()        {}
func (VideoBlock) isBlock()       {}
func (SectionHeading) isBlock()   {}
func (ProjectHighlight) isBlock() {}
func (UnknownBlock) isBlock()     {}

// BlockKey 返回渲染与媒体激活使用的块键：优先用块 id，缺失时按位置生成 "idx-<position>"。
func BlockKey(b Block, position int) string {
	if id := b.BlockID(); id != "" {
		return id
	}
	return "idx-" + strconv.Itoa(position)
}

// storedBlock 对应 content_blocks 数组中每个元素的存储格式。
type storedBlock struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data blockData `json:"data"`
}

type blockData struct {
	Date          string   `json:"date,omitempty"`
	Title         string   `json:"title,omitempty"`
	Content       string   `json:"content,omitempty"`
	URLs          []string `json:"urls,omitempty"`
	StarSituation string   `json:"star_situation,omitempty"`
	StarTask      string   `json:"star_task,omitempty"`
	StarAction    string   `json:"star_action,omitempty"`
	StarResult    string   `json:"star_result,omitempty"`
	EvidenceURLs  []string `json:"evidence_urls,omitempty"`
}

// DecodeBlocks 解析 content_blocks 列。
// 空值/null 返回空列表；只有顶层不是数组时才报错，单个块的字段缺失或类型不对都按空值处理。
func DecodeBlocks(raw []byte) ([]Block, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("decode content blocks: %w", err)
	}

	blocks := make([]Block, 0, len(elems))
	for _, elem := range elems {
		blocks = append(blocks, decodeBlock(elem))
	}
	return blocks, nil
}

func decodeBlock(elem json.RawMessage) Block {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil {
		return UnknownBlock{Raw: elem}
	}

	id := looseString(fields["id"])
	blockType := BlockType(looseString(fields["type"]))

	var data map[string]json.RawMessage
	if rawData, ok := fields["data"]; ok {
		_ = json.Unmarshal(rawData, &data)
	}
	str := func(key string) string { return looseString(data[key]) }
	strs := func(key string) []string { return looseStrings(data[key]) }

	switch blockType {
	case BlockTimelineNode, BlockHeader:
		urls := strs("urls")
		media := make([]MediaItem, 0, len(urls))
		for _, u := range urls {
			media = append(media, ClassifyMedia(u))
		}
		return TimelineNode{
			ID:      id,
			Legacy:  blockType == BlockHeader,
			Date:    str("date"),
			Title:   str("title"),
			Content: str("content"),
			Media:   media,
		}
	case BlockText:
		return TextBlock{ID: id, Title: str("title"), Content: str("content")}
	case BlockImageGrid:
		return ImageGrid{ID: id, Title: str("title"), URLs: strs("urls"), Caption: str("content")}
	case BlockVideo:
		var source MediaItem
		if urls := strs("urls"); len(urls) > 0 {
			source = ClassifyMedia(urls[0])
		}
		return VideoBlock{ID: id, Title: str("title"), Source: source, Caption: str("content")}
	case BlockSectionHeading:
		return SectionHeading{ID: id, Title: str("title")}
	case BlockProjectHighlight:
		return ProjectHighlight{
			ID:    id,
			Title: str("title"),
			Date:  str("date"),
			STAR: STAR{
				Situation: str("star_situation"),
				Task:      str("star_task"),
				Action:    str("star_action"),
				Result:    str("star_result"),
			},
			EvidenceURLs: strs("evidence_urls"),
		}
	default:
		return UnknownBlock{ID: id, RawType: string(blockType), Raw: elem}
	}
}

// EncodeBlocks 把内容块写回存储格式。
func EncodeBlocks(blocks []Block) ([]byte, error) {
	out := make([]json.RawMessage, 0, len(blocks))
	for _, b := range blocks {
		if unknown, ok := b.(UnknownBlock); ok && len(unknown.Raw) > 0 {
			out = append(out, unknown.Raw)
			continue
		}
		data, err := json.Marshal(toStored(b))
		if err != nil {
			return nil, fmt.Errorf("encode block %q: %w", b.BlockID(), err)
		}
		out = append(out, data)
	}
	return json.Marshal(out)
}

func toStored(b Block) storedBlock {
	sb := storedBlock{ID: b.BlockID(), Type: string(b.Type())}
	switch v := b.(type) {
	case TimelineNode:
		sb.Data = blockData{Date: v.Date, Title: v.Title, Content: v.Content}
		for _, m := range v.Media {
			sb.Data.URLs = append(sb.Data.URLs, m.Value)
		}
	case TextBlock:
		sb.Data = blockData{Title: v.Title, Content: v.Content}
	case ImageGrid:
		sb.Data = blockData{Title: v.Title, URLs: v.URLs, Content: v.Caption}
	case VideoBlock:
		sb.Data = blockData{Title: v.Title, Content: v.Caption}
		if v.Source.Value != "" {
			sb.Data.URLs = []string{v.Source.Value}
		}
	case SectionHeading:
		sb.Data = blockData{Title: v.Title}
	case ProjectHighlight:
		sb.Data = blockData{
			Title:         v.Title,
			Date:          v.Date,
			StarSituation: v.STAR.Situation,
			StarTask:      v.STAR.Task,
			StarAction:    v.STAR.Action,
			StarResult:    v.STAR.Result,
			EvidenceURLs:  v.EvidenceURLs,
		}
	}
	return sb
}

// looseString 接受字符串或数字（旧数据里 id 可能是时间戳数字），其余类型视为空。
func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}
	return ""
}

func looseStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if s := looseString(e); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func looseFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
	}
	return 0
}
