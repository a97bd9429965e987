package payload

import (
	"sort"

	"summarymaker/internal/document/model"
	"summarymaker/pkg/apperr"
)

// BlockIndex maps a block's own id to its key in the payload's block map.
type BlockIndex map[string]string

// IndexBlocks builds the id index once per loaded document. Keys are visited
// in sorted order so that duplicate block ids always resolve to the same entry.
func IndexBlocks(blocks map[string]model.Block) BlockIndex {
	keys := make([]string, 0, len(blocks))
	for k := range blocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	idx := make(BlockIndex, len(blocks))
	for _, k := range keys {
		id := blocks[k].ID.Key()
		if id == "" {
			continue
		}
		if _, dup := idx[id]; !dup {
			idx[id] = k
		}
	}
	return idx
}

// FindBlock locates a block by its id. A missing or empty block map and an
// unknown id are both reported as NotFound.
func FindBlock(p model.Payload, blockID string) (model.Block, error) {
	if len(p.Blocks) == 0 {
		return model.Block{}, apperr.NotFound("Provided blockId doesnt exists")
	}
	key, ok := IndexBlocks(p.Blocks)[model.ID(blockID).Key()]
	if !ok {
		return model.Block{}, apperr.NotFound("Provided blockId doesnt exists")
	}
	return p.Blocks[key], nil
}

// ProjectContentElements summarizes a block's content elements in order.
func ProjectContentElements(b model.Block) []model.ContentElementSummary {
	out := make([]model.ContentElementSummary, 0, len(b.ContentElements))
	for _, el := range b.ContentElements {
		s := model.ContentElementSummary{
			ID:     el.ID,
			Name:   el.Name,
			Size:   el.Size,
			Type:   el.Type,
			Layout: el.Layout,
		}
		if el.Thumbnail != nil {
			s.URL = el.Thumbnail.URL
		}
		out = append(out, s)
	}
	return out
}
