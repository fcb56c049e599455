package cluster

import "github.com/Carmen-Shannon/oxy-cluster/common"

// zBinBatchCount returns the number of ZBinBatchSize batches covering binCount bins.
func zBinBatchCount(binCount int) int {
	return (binCount + ZBinBatchSize - 1) / ZBinBatchSize
}

// buildZBinBatch fills the bins owned by one batch. Each batch only touches
// bins[first*stride : (last+1)*stride], so batches can run in parallel without synchronization.
// Lights are written to header word 0 and probes to header word 1, each by its own pass over the
// same bins. Item indices are global: probes follow the lights.
func buildZBinBatch(p *frameParams, shapes []itemShape, bins []uint32, batch int) {
	first := batch * ZBinBatchSize
	last := min(first+ZBinBatchSize, p.binCount) - 1
	if first > last {
		return
	}
	stride := p.zBinStride()
	for b := first; b <= last; b++ {
		bins[b*stride] = EmptyZBinHeader
		bins[b*stride+1] = EmptyZBinHeader
	}

	passes := [2][2]int{{0, p.lightCount}, {p.lightCount, p.itemCount}}
	for header, pass := range passes {
		for i := pass[0]; i < pass[1]; i++ {
			s := &shapes[i]
			if s.kind == shapeNone {
				continue
			}
			lo := max(p.binIndex(s.minZ), first)
			hi := min(p.binIndex(s.maxZ), last)
			for b := lo; b <= hi; b++ {
				off := b * stride
				h := bins[off+header]
				minIdx := min(h&0xFFFF, uint32(i))
				maxIdx := max(h>>16, uint32(i))
				bins[off+header] = minIdx | maxIdx<<16
				common.Bitset32(bins[off+ZBinHeaderWords : off+stride]).Set(i)
			}
		}
	}
}
