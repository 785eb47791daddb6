package vm

import (
	"sort"

	"github.com/kurogane-re/onigo/opcode"
	"github.com/kurogane-re/onigo/region"
)

// buildHistory reconstructs the capture-history tree once, at match
// finalization, from the final Beg/End offsets of every group the program
// enables history tracking for. Groups nest by interval
// containment: this is simpler than threading live tree mutations through
// the backtrack stack, at the cost of only ever reflecting a repeated
// group's last occurrence rather than every occurrence it matched along
// the way.
func buildHistory(prog *opcode.Program, reg *region.Region) *region.HistoryNode {
	root := region.NewHistoryNode(0, reg.Beg[0], reg.End[0])

	var nodes []*region.HistoryNode
	for g := 1; g <= prog.NumMem; g++ {
		if g >= len(prog.CaptureHistory) || !prog.CaptureHistory[g] {
			continue
		}
		b, e := reg.Beg[g], reg.End[g]
		if b == region.NotPos || e == region.NotPos {
			continue
		}
		nodes = append(nodes, region.NewHistoryNode(g, b, e))
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Beg != nodes[j].Beg {
			return nodes[i].Beg < nodes[j].Beg
		}
		return nodes[i].End > nodes[j].End
	})

	stack := []*region.HistoryNode{root}
	for _, n := range nodes {
		for len(stack) > 1 && !encloses(stack[len(stack)-1], n) {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		parent.AddChild(n)
		stack = append(stack, n)
	}
	return root
}

func encloses(parent, n *region.HistoryNode) bool {
	return parent.Beg <= n.Beg && n.End <= parent.End
}
