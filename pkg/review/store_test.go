package review

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore() (*MemoryStore, *time.Time) {
	current := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithClock(func() time.Time { return current }))
	return store, &current
}

func TestMemoryStore_ItemLifecycle(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore()

	created, err := store.CreateItem(ctx, Item{Title: "Onboarding form", ItemType: "form"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("create should assign an id")
	}
	if created.Status != StatusDraft || created.Priority != PriorityMedium {
		t.Fatalf("defaults not applied: %+v", created)
	}

	*clock = clock.Add(time.Hour)
	created.Status = StatusUnderReview
	updated, err := store.UpdateItem(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Fatalf("UpdatedAt not bumped: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("CreatedAt must survive updates")
	}

	if err := store.DeleteItem(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetItem(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_RejectsUnknownEnumValues(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	if _, err := store.CreateItem(ctx, Item{Title: "x", Status: Status("launched")}); err == nil {
		t.Fatal("unknown status should be rejected")
	}
	if _, err := store.CreateItem(ctx, Item{Title: "x", Priority: Priority("asap")}); err == nil {
		t.Fatal("unknown priority should be rejected")
	}
}

func TestMemoryStore_CommentsRequireItemAndParent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	item, err := store.CreateItem(ctx, Item{Title: "form"})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	if _, err := store.CreateComment(ctx, Comment{ItemID: "ghost", Body: "hi"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("comment on missing item: %v", err)
	}

	root, err := store.CreateComment(ctx, Comment{ItemID: item.ID, Author: "dana", Body: "looks good"})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if _, err := store.CreateComment(ctx, Comment{ItemID: item.ID, ParentID: "missing", Body: "reply"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reply to missing parent: %v", err)
	}

	reply, err := store.CreateComment(ctx, Comment{ItemID: item.ID, ParentID: root.ID, Author: "mira", Body: "agreed"})
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}

	comments, err := store.ListComments(ctx, item.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("want 2 comments, got %d", len(comments))
	}

	edited, err := store.UpdateComment(ctx, Comment{ID: reply.ID, Body: "strongly agreed"})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !edited.Edited || edited.Body != "strongly agreed" {
		t.Fatalf("edit not applied: %+v", edited)
	}
}

func TestMemoryStore_AssignmentsMirrorOntoItem(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	item, err := store.CreateItem(ctx, Item{Title: "form"})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	assignment, err := store.CreateAssignment(ctx, Assignment{ItemID: item.ID, Assignee: "dana", Role: "approver"})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	got, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Assignees) != 1 || got.Assignees[0] != "dana" {
		t.Fatalf("assignee not mirrored: %+v", got.Assignees)
	}

	// Duplicate assignee on the same item is rejected.
	if _, err := store.CreateAssignment(ctx, Assignment{ItemID: item.ID, Assignee: "dana"}); err == nil {
		t.Fatal("duplicate assignment should fail")
	}

	if err := store.DeleteAssignment(ctx, assignment.ID); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	got, _ = store.GetItem(ctx, item.ID)
	if len(got.Assignees) != 0 {
		t.Fatalf("assignee not removed: %+v", got.Assignees)
	}
}

func TestMemoryStore_DeleteItemCascades(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	item, _ := store.CreateItem(ctx, Item{Title: "form"})
	if _, err := store.CreateComment(ctx, Comment{ItemID: item.ID, Body: "note"}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := store.CreateAssignment(ctx, Assignment{ItemID: item.ID, Assignee: "dana"}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := store.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	comments, _ := store.ListComments(ctx, item.ID)
	if len(comments) != 0 {
		t.Fatal("comments should cascade on item delete")
	}
	assignments, _ := store.ListAssignments(ctx, item.ID)
	if len(assignments) != 0 {
		t.Fatal("assignments should cascade on item delete")
	}
}
