package commenttree

import (
	"github.com/dalemusser/busybee/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Node is a comment with its direct replies, oldest first.
type Node struct {
	models.NoteComment
	Replies []*Node `json:"replies"`
}

// BuildTree turns flat rows, already sorted by creation time, into a
// forest of reply trees. Nodes live in one arena slice and are linked by
// index, so the build needs no recursion.
//
// A row whose parent is not among rows, or that sits on a parent cycle, is
// promoted to a root; orphans reports how many were. Roots and replies
// keep the input order.
func BuildTree(rows []models.NoteComment) (roots []*Node, orphans int) {
	arena := make([]Node, len(rows))
	index := make(map[primitive.ObjectID]int, len(rows))
	for i := range rows {
		arena[i] = Node{NoteComment: rows[i], Replies: []*Node{}}
		index[rows[i].ID] = i
	}

	parent := make([]int, len(arena))
	isRoot := make([]bool, len(arena))
	for i := range arena {
		parent[i] = -1
		if arena[i].ParentCommentID == nil {
			isRoot[i] = true
			continue
		}
		p, ok := index[*arena[i].ParentCommentID]
		if !ok || p == i {
			orphans++
			isRoot[i] = true
			continue
		}
		parent[i] = p
	}

	// Rows not reachable from a root sit on a cycle. Cutting the earliest
	// such row from its parent makes it a root and frees its subtree.
	reached := make([]bool, len(arena))
	children := make([][]int, len(arena))
	for i, p := range parent {
		if p >= 0 {
			children[p] = append(children[p], i)
		}
	}
	mark := func(from int) {
		stack := []int{from}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if reached[n] {
				continue
			}
			reached[n] = true
			stack = append(stack, children[n]...)
		}
	}
	for i := range arena {
		if isRoot[i] {
			mark(i)
		}
	}
	for i := range arena {
		if reached[i] {
			continue
		}
		orphans++
		isRoot[i] = true
		parent[i] = -1
		mark(i)
	}

	roots = []*Node{}
	for i := range arena {
		if isRoot[i] {
			roots = append(roots, &arena[i])
			continue
		}
		arena[parent[i]].Replies = append(arena[parent[i]].Replies, &arena[i])
	}
	return roots, orphans
}
