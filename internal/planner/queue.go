package planner

import (
	"container/heap"

	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

// node is one search-tree vertex. Nodes are owned by a single Plan call.
type node struct {
	state     worldstate.State
	signature string
	action    *Action
	parent    *node
	cost      float64
	depth     int
	distance  float64
	score     float64
	seq       int
	index     int
}

// path walks parent links back to the root and returns the actions in order.
func (n *node) path() []Action {
	actions := make([]Action, n.depth)
	for cur := n; cur.parent != nil; cur = cur.parent {
		actions[cur.depth-1] = *cur.action
	}
	return actions
}

// nodeQueue is a min-heap on score. Equal scores pop in insertion order.
type nodeQueue []*node

var _ heap.Interface = (*nodeQueue)(nil)

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].score != q[j].score {
		return q[i].score < q[j].score
	}
	return q[i].seq < q[j].seq
}

func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	n := x.(*node)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *nodeQueue) Pop() any {
	old := *q
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*q = old[:last]
	return n
}

// closest returns the node with the smallest goal distance, earliest inserted on ties.
func closest(nodes []*node) *node {
	var best *node
	for _, n := range nodes {
		if best == nil || n.distance < best.distance || (n.distance == best.distance && n.seq < best.seq) {
			best = n
		}
	}
	return best
}
