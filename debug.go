package twin

import (
	"fmt"

	"go.uber.org/zap"
)

// checkDisposed panics with a descriptive message when a disposed node is
// used in a tree operation.
func checkDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("twin: %s on disposed node %q", op, n.Name))
	}
}

// debugMaxTreeDepth is the depth past which debug mode warns.
const debugMaxTreeDepth = 32

// debugMaxChildCount is the child count past which debug mode warns.
const debugMaxChildCount = 1000

// debugCheckTree walks the tree once and logs nodes that exceed the depth
// or fan-out thresholds.
func (s *Scene) debugCheckTree() {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if depth > debugMaxTreeDepth {
			s.logger.Warn("tree depth exceeds limit",
				zap.String("node", n.Name), zap.Int("depth", depth), zap.Int("limit", debugMaxTreeDepth))
			return
		}
		if len(n.children) > debugMaxChildCount {
			s.logger.Warn("child count exceeds limit",
				zap.String("node", n.Name), zap.Int("children", len(n.children)), zap.Int("limit", debugMaxChildCount))
		}
		for _, c := range n.children {
			visit(c, depth+1)
		}
	}
	visit(s.root, 1)
}
