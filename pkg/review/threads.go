package review

import "sort"

// MaxThreadDepth caps how deep reply chains nest when building threads.
// Descendants below the cap surface as siblings at the deepest rendered
// level instead of nesting further.
const MaxThreadDepth = 3

// ThreadSort selects the ordering of top-level threads.
type ThreadSort string

const (
	SortNewest      ThreadSort = "newest"
	SortOldest      ThreadSort = "oldest"
	SortMostReplies ThreadSort = "most_replies"
)

// ParseThreadSort maps a query value onto a sort order, defaulting to newest.
func ParseThreadSort(raw string) ThreadSort {
	switch ThreadSort(raw) {
	case SortOldest:
		return SortOldest
	case SortMostReplies:
		return SortMostReplies
	default:
		return SortNewest
	}
}

// Thread is a comment with its nested replies.
type Thread struct {
	Comment Comment   `json:"comment"`
	Replies []*Thread `json:"replies,omitempty"`
}

// ReplyCount counts every reply below the thread, at any depth.
func (t *Thread) ReplyCount() int {
	count := len(t.Replies)
	for _, reply := range t.Replies {
		count += reply.ReplyCount()
	}
	return count
}

// BuildThreads assembles a flat comment list into sorted top-level threads.
// Comments whose parent is missing are promoted to top level rather than
// dropped. Replies within a thread sort oldest-first; order picks the
// top-level ordering and equal keys keep input order.
func BuildThreads(comments []Comment, order ThreadSort) []*Thread {
	byID := make(map[string]*Thread, len(comments))
	nodes := make([]*Thread, 0, len(comments))
	for _, comment := range comments {
		node := &Thread{Comment: comment}
		byID[comment.ID] = node
		nodes = append(nodes, node)
	}

	var roots []*Thread
	for _, node := range nodes {
		parent := byID[node.Comment.ParentID]
		if node.Comment.ParentID == "" || parent == nil || parent == node {
			roots = append(roots, node)
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}

	for _, node := range nodes {
		sort.SliceStable(node.Replies, func(i, j int) bool {
			return node.Replies[i].Comment.CreatedAt.Before(node.Replies[j].Comment.CreatedAt)
		})
	}
	for _, root := range roots {
		capDepth(root, 1)
	}

	switch order {
	case SortOldest:
		sort.SliceStable(roots, func(i, j int) bool {
			return roots[i].Comment.CreatedAt.Before(roots[j].Comment.CreatedAt)
		})
	case SortMostReplies:
		sort.SliceStable(roots, func(i, j int) bool {
			return roots[i].ReplyCount() > roots[j].ReplyCount()
		})
	default: // SortNewest
		sort.SliceStable(roots, func(i, j int) bool {
			return roots[i].Comment.CreatedAt.After(roots[j].Comment.CreatedAt)
		})
	}
	return roots
}

// capDepth flattens descendants below MaxThreadDepth into the deepest
// rendered reply list, keeping chronological order.
func capDepth(node *Thread, level int) {
	if level == MaxThreadDepth-1 {
		var flat []*Thread
		for _, reply := range node.Replies {
			flat = append(flat, collectSubtree(reply)...)
		}
		sort.SliceStable(flat, func(i, j int) bool {
			return flat[i].Comment.CreatedAt.Before(flat[j].Comment.CreatedAt)
		})
		node.Replies = flat
		return
	}
	for _, reply := range node.Replies {
		capDepth(reply, level+1)
	}
}

func collectSubtree(node *Thread) []*Thread {
	out := []*Thread{node}
	for _, reply := range node.Replies {
		out = append(out, collectSubtree(reply)...)
	}
	node.Replies = nil
	return out
}
