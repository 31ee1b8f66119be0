package portfolio

import (
	"fmt"

	"github.com/google/uuid"
)

// NormalizeBlocks 在后台保存前为缺少 id 的内容块分配新 id；已有 id 保持不变。
func NormalizeBlocks(raw []byte) ([]byte, error) {
	blocks, err := DecodeBlocks(raw)
	if err != nil {
		return nil, err
	}
	for i, b := range blocks {
		if b.BlockID() != "" {
			continue
		}
		blocks[i] = withID(b, uuid.NewString())
	}
	data, err := EncodeBlocks(blocks)
	if err != nil {
		return nil, fmt.Errorf("normalize blocks: %w", err)
	}
	return data, nil
}

func withID(b Block, id string) Block {
	switch v := b.(type) {
	case TimelineNode:
		v.ID = id
		return v
	case TextBlock:
		v.ID = id
		return v
	case ImageGrid:
		v.ID = id
		return v
	case VideoBlock:
		v.ID = id
		return v
	case SectionHeading:
		v.ID = id
		return v
	case ProjectHighlight:
		v.ID = id
		return v
	default:
		return b
	}
}
