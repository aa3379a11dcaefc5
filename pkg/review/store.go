package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an id resolves to nothing.
	ErrNotFound = errors.New("review: not found")
)

// Store is the persistence seam the dashboard service talks to. A storage
// engine is out of scope; MemoryStore is the shipped implementation and the
// interface is the extension point.
type Store interface {
	CreateItem(ctx context.Context, item Item) (Item, error)
	GetItem(ctx context.Context, id string) (Item, error)
	UpdateItem(ctx context.Context, item Item) (Item, error)
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context, f Filter, p Page) (ListResult, error)

	CreateComment(ctx context.Context, comment Comment) (Comment, error)
	UpdateComment(ctx context.Context, comment Comment) (Comment, error)
	DeleteComment(ctx context.Context, id string) error
	ListComments(ctx context.Context, itemID string) ([]Comment, error)

	CreateAssignment(ctx context.Context, assignment Assignment) (Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error
	ListAssignments(ctx context.Context, itemID string) ([]Assignment, error)
}

// MemoryStore keeps everything in maps behind one RWMutex. Safe for
// concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	items       map[string]Item
	comments    map[string]Comment
	assignments map[string]Assignment
	now         func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock pins the store's time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		items:       map[string]Item{},
		comments:    map[string]Comment{},
		assignments: map[string]Assignment{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateItem stores a new item, generating an id when absent and defaulting
// the status to draft and the priority to medium.
func (s *MemoryStore) CreateItem(ctx context.Context, item Item) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = StatusDraft
	}
	if !item.Status.Valid() {
		return Item{}, fmt.Errorf("review: invalid status %q", item.Status)
	}
	if item.Priority == "" {
		item.Priority = PriorityMedium
	}
	if !item.Priority.Valid() {
		return Item{}, fmt.Errorf("review: invalid priority %q", item.Priority)
	}
	now := s.now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return Item{}, fmt.Errorf("review: item %q already exists", item.ID)
	}
	s.items[item.ID] = item
	return item, nil
}

// GetItem fetches one item by id.
func (s *MemoryStore) GetItem(ctx context.Context, id string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: item %q", ErrNotFound, id)
	}
	return item, nil
}

// UpdateItem replaces a stored item, preserving CreatedAt and bumping
// UpdatedAt.
func (s *MemoryStore) UpdateItem(ctx context.Context, item Item) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	if !item.Status.Valid() {
		return Item{}, fmt.Errorf("review: invalid status %q", item.Status)
	}
	if !item.Priority.Valid() {
		return Item{}, fmt.Errorf("review: invalid priority %q", item.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[item.ID]
	if !ok {
		return Item{}, fmt.Errorf("%w: item %q", ErrNotFound, item.ID)
	}
	item.CreatedAt = existing.CreatedAt
	item.CreatedBy = existing.CreatedBy
	item.UpdatedAt = s.now().UTC()
	s.items[item.ID] = item
	return item, nil
}

// DeleteItem removes an item along with its comments and assignments.
func (s *MemoryStore) DeleteItem(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: item %q", ErrNotFound, id)
	}
	delete(s.items, id)
	for commentID, comment := range s.comments {
		if comment.ItemID == id {
			delete(s.comments, commentID)
		}
	}
	for assignmentID, assignment := range s.assignments {
		if assignment.ItemID == id {
			delete(s.assignments, assignmentID)
		}
	}
	return nil
}

// ListItems applies the filter and pagination over a snapshot of the items.
func (s *MemoryStore) ListItems(ctx context.Context, f Filter, p Page) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, err
	}
	s.mu.RLock()
	items := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	s.mu.RUnlock()

	return Apply(items, f, p), nil
}

// CreateComment stores a new comment. A non-empty ParentID must reference an
// existing comment on the same item.
func (s *MemoryStore) CreateComment(ctx context.Context, comment Comment) (Comment, error) {
	if err := ctx.Err(); err != nil {
		return Comment{}, err
	}
	if comment.Body == "" {
		return Comment{}, errors.New("review: comment body is empty")
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	now := s.now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[comment.ItemID]; !ok {
		return Comment{}, fmt.Errorf("%w: item %q", ErrNotFound, comment.ItemID)
	}
	if comment.ParentID != "" {
		parent, ok := s.comments[comment.ParentID]
		if !ok || parent.ItemID != comment.ItemID {
			return Comment{}, fmt.Errorf("%w: parent comment %q", ErrNotFound, comment.ParentID)
		}
	}
	s.comments[comment.ID] = comment
	return comment, nil
}

// UpdateComment replaces a comment's body and marks it edited.
func (s *MemoryStore) UpdateComment(ctx context.Context, comment Comment) (Comment, error) {
	if err := ctx.Err(); err != nil {
		return Comment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.comments[comment.ID]
	if !ok {
		return Comment{}, fmt.Errorf("%w: comment %q", ErrNotFound, comment.ID)
	}
	existing.Body = comment.Body
	existing.Edited = true
	existing.UpdatedAt = s.now().UTC()
	s.comments[comment.ID] = existing
	return existing, nil
}

// DeleteComment removes a comment. Replies survive and get promoted to top
// level when threads rebuild.
func (s *MemoryStore) DeleteComment(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return fmt.Errorf("%w: comment %q", ErrNotFound, id)
	}
	delete(s.comments, id)
	return nil
}

// ListComments returns an item's comments oldest-first.
func (s *MemoryStore) ListComments(ctx context.Context, itemID string) ([]Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Comment
	for _, comment := range s.comments {
		if comment.ItemID == itemID {
			out = append(out, comment)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// CreateAssignment stores a new assignment and mirrors the assignee onto the
// item for filtering.
func (s *MemoryStore) CreateAssignment(ctx context.Context, assignment Assignment) (Assignment, error) {
	if err := ctx.Err(); err != nil {
		return Assignment{}, err
	}
	if assignment.Assignee == "" {
		return Assignment{}, errors.New("review: assignee is empty")
	}
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	assignment.AssignedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[assignment.ItemID]
	if !ok {
		return Assignment{}, fmt.Errorf("%w: item %q", ErrNotFound, assignment.ItemID)
	}
	for _, existing := range s.assignments {
		if existing.ItemID == assignment.ItemID && existing.Assignee == assignment.Assignee {
			return Assignment{}, fmt.Errorf("review: %q already assigned to item %q", assignment.Assignee, assignment.ItemID)
		}
	}
	s.assignments[assignment.ID] = assignment

	item.Assignees = append(item.Assignees, assignment.Assignee)
	item.UpdatedAt = s.now().UTC()
	s.items[item.ID] = item
	return assignment, nil
}

// DeleteAssignment removes an assignment and the mirrored assignee entry.
func (s *MemoryStore) DeleteAssignment(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	assignment, ok := s.assignments[id]
	if !ok {
		return fmt.Errorf("%w: assignment %q", ErrNotFound, id)
	}
	delete(s.assignments, id)

	if item, ok := s.items[assignment.ItemID]; ok {
		var kept []string
		for _, assignee := range item.Assignees {
			if assignee != assignment.Assignee {
				kept = append(kept, assignee)
			}
		}
		item.Assignees = kept
		item.UpdatedAt = s.now().UTC()
		s.items[item.ID] = item
	}
	return nil
}

// ListAssignments returns an item's assignments oldest-first.
func (s *MemoryStore) ListAssignments(ctx context.Context, itemID string) ([]Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Assignment
	for _, assignment := range s.assignments {
		if assignment.ItemID == itemID {
			out = append(out, assignment)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AssignedAt.Before(out[j].AssignedAt)
	})
	return out, nil
}
