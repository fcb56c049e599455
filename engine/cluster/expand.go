package cluster

import "github.com/Carmen-Shannon/oxy-cluster/common"

// rowItem is an item present in a tile row together with its column range in that row.
type rowItem struct {
	index int
	cols  InclusiveRange
}

// expandRows writes the tile masks of rows [rowStart, rowEnd). Each row owns
// masks[row*tileCountX*wordsPerTile : (row+1)*tileCountX*wordsPerTile], so disjoint row ranges
// can be expanded in parallel. The items of a row are compacted first so the column loop only
// visits items that touch the row.
func expandRows(p *frameParams, ranges []InclusiveRange, masks []uint32, rowStart, rowEnd int) {
	wpt := p.wordsPerTile
	rowWords := p.tileCountX * wpt
	items := make([]rowItem, 0, p.itemCount)

	for row := rowStart; row < rowEnd; row++ {
		items = items[:0]
		for i := 0; i < p.itemCount; i++ {
			slots := ranges[i*p.rangesPerItem:]
			if !slots[0].Contains(row) {
				continue
			}
			if cols := slots[1+row]; !cols.IsEmpty() {
				items = append(items, rowItem{index: i, cols: cols})
			}
		}
		if len(items) == 0 {
			continue
		}

		words := masks[row*rowWords : (row+1)*rowWords]
		for x := 0; x < p.tileCountX; x++ {
			tile := common.Bitset32(words[x*wpt : (x+1)*wpt])
			for _, it := range items {
				if it.cols.Contains(x) {
					tile.Set(it.index)
				}
			}
		}
	}
}
