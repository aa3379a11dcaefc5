package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/formstudio-io/go-formstudio/pkg/review"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []Event
}

func (b *recordingBroadcaster) Publish(itemID string, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, ev := range b.events {
		out[i] = ev.Type
	}
	return out
}

func newTestServer(t *testing.T, fns ...OptionFn) (*httptest.Server, review.Store) {
	t.Helper()

	store := review.NewMemoryStore()
	mux := http.NewServeMux()
	base, err := RegisterRoutes(mux, "", append([]OptionFn{WithStore(store)}, fns...)...)
	if err != nil {
		t.Fatalf("register routes: %v", err)
	}
	if base != "/api/v1/reviews" {
		t.Fatalf("unexpected mount path %q", base)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) *http.Response {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		payload = bytes.NewBuffer(raw)
	} else {
		payload = &bytes.Buffer{}
	}

	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestItemLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/api/v1/reviews"

	resp := doJSON(t, http.MethodPost, base, map[string]any{
		"title":    "Onboarding form",
		"itemType": "form",
		"tags":     []string{"hr"},
	}, map[string]string{"X-Review-Author": "dana"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decodeBody[review.Item](t, resp)
	if created.ID == "" || created.Status != review.StatusDraft || created.Priority != review.PriorityMedium {
		t.Fatalf("defaults not applied: %+v", created)
	}
	if created.CreatedBy != "dana" {
		t.Fatalf("CreatedBy = %q, want author header", created.CreatedBy)
	}

	resp = doJSON(t, http.MethodGet, base+"/"+created.ID, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	detail := decodeBody[struct {
		Item    review.Item      `json:"item"`
		Threads []*review.Thread `json:"threads"`
	}](t, resp)
	if detail.Item.Title != "Onboarding form" {
		t.Fatalf("get returned %+v", detail.Item)
	}

	resp = doJSON(t, http.MethodPut, base+"/"+created.ID, map[string]any{
		"status":   "under_review",
		"priority": "high",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	updated := decodeBody[review.Item](t, resp)
	if updated.Status != review.StatusUnderReview || updated.Priority != review.PriorityHigh {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Title != "Onboarding form" {
		t.Fatal("zero-value fields must not clobber existing data")
	}

	resp = doJSON(t, http.MethodDelete, base+"/"+created.ID, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, base+"/"+created.ID, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", resp.StatusCode)
	}
}

func TestListFiltersAndPagination(t *testing.T) {
	srv, store := newTestServer(t)
	base := srv.URL + "/api/v1/reviews"
	ctx := context.Background()

	for i := range 12 {
		status := review.StatusPending
		if i%3 == 0 {
			status = review.StatusApproved
		}
		_, err := store.CreateItem(ctx, review.Item{
			Title:  fmt.Sprintf("Form %02d", i),
			Status: status,
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	resp := doJSON(t, http.MethodGet, base+"?status=approved&limit=3", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	page := decodeBody[review.ListResult](t, resp)
	if page.Total != 4 {
		t.Fatalf("Total = %d, want filtered count 4", page.Total)
	}
	if len(page.Items) != 3 || !page.HasNext {
		t.Fatalf("first page wrong: %d items, hasNext=%v", len(page.Items), page.HasNext)
	}
	for _, item := range page.Items {
		if item.Status != review.StatusApproved {
			t.Fatalf("filter leak: %+v", item)
		}
	}

	resp = doJSON(t, http.MethodGet, base+"?status=launched", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown status should 400, got %d", resp.StatusCode)
	}
}

func TestListHonorsConfiguredMaxPageSize(t *testing.T) {
	srv, store := newTestServer(t, WithPageSizes(25, 200))
	base := srv.URL + "/api/v1/reviews"
	ctx := context.Background()

	for i := range 120 {
		if _, err := store.CreateItem(ctx, review.Item{Title: fmt.Sprintf("Form %03d", i)}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	resp := doJSON(t, http.MethodGet, base+"?limit=150", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	page := decodeBody[review.ListResult](t, resp)
	if len(page.Items) != 120 {
		t.Fatalf("configured max ignored: got %d items, want all 120", len(page.Items))
	}
	if page.Total != 120 {
		t.Fatalf("Total = %d, want 120", page.Total)
	}
}

func TestCommentThreadEndpoints(t *testing.T) {
	srv, store := newTestServer(t)
	base := srv.URL + "/api/v1/reviews"

	item, err := store.CreateItem(context.Background(), review.Item{Title: "form"})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}

	resp := doJSON(t, http.MethodPost, base+"/"+item.ID+"/comments", map[string]any{
		"body": "needs a phone field",
	}, map[string]string{"X-Review-Author": "dana"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create comment status = %d", resp.StatusCode)
	}
	root := decodeBody[review.Comment](t, resp)
	if root.Author != "dana" {
		t.Fatalf("author = %q", root.Author)
	}

	resp = doJSON(t, http.MethodPost, base+"/"+item.ID+"/comments", map[string]any{
		"parentId": root.ID,
		"body":     "added in v2",
	}, map[string]string{"X-Review-Author": "mira"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create reply status = %d", resp.StatusCode)
	}
	reply := decodeBody[review.Comment](t, resp)

	resp = doJSON(t, http.MethodGet, base+"/"+item.ID+"/comments?sort=oldest", nil, nil)
	listing := decodeBody[struct {
		Threads []*review.Thread `json:"threads"`
	}](t, resp)
	if len(listing.Threads) != 1 {
		t.Fatalf("want one root thread, got %d", len(listing.Threads))
	}
	if len(listing.Threads[0].Replies) != 1 || listing.Threads[0].Replies[0].Comment.ID != reply.ID {
		t.Fatalf("reply not nested: %+v", listing.Threads[0])
	}

	resp = doJSON(t, http.MethodPut, base+"/"+item.ID+"/comments/"+reply.ID, map[string]any{
		"body": "added in v2, see the matrix section",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit status = %d", resp.StatusCode)
	}
	edited := decodeBody[review.Comment](t, resp)
	if !edited.Edited {
		t.Fatal("edited flag not set")
	}

	resp = doJSON(t, http.MethodDelete, base+"/"+item.ID+"/comments/"+reply.ID, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete comment status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, base+"/missing/comments", map[string]any{"body": "x"}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("comment on missing item status = %d", resp.StatusCode)
	}
}

func TestAssignmentEndpoints(t *testing.T) {
	srv, store := newTestServer(t)
	base := srv.URL + "/api/v1/reviews"

	item, err := store.CreateItem(context.Background(), review.Item{Title: "form"})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}

	resp := doJSON(t, http.MethodPost, base+"/"+item.ID+"/assignments", map[string]any{
		"assignee": "dana",
		"role":     "approver",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("assign status = %d", resp.StatusCode)
	}
	assignment := decodeBody[review.Assignment](t, resp)

	resp = doJSON(t, http.MethodPost, base+"/"+item.ID+"/assignments", map[string]any{
		"assignee": "dana",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate assignee should 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, base+"/"+item.ID+"/assignments", nil, nil)
	listing := decodeBody[struct {
		Assignments []review.Assignment `json:"assignments"`
	}](t, resp)
	if len(listing.Assignments) != 1 || listing.Assignments[0].Assignee != "dana" {
		t.Fatalf("assignments listing: %+v", listing.Assignments)
	}

	resp = doJSON(t, http.MethodDelete, base+"/"+item.ID+"/assignments/"+assignment.ID, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unassign status = %d", resp.StatusCode)
	}
}

func TestExportEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	base := srv.URL + "/api/v1/reviews"

	for i := range 3 {
		if _, err := store.CreateItem(context.Background(), review.Item{Title: fmt.Sprintf("Form %d", i)}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	resp := doJSON(t, http.MethodGet, base+"/export", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("Content-Type = %q", ct)
	}
	disposition := resp.Header.Get("Content-Disposition")
	want := `attachment; filename="` + review.ExportFilename(time.Now()) + `"`
	if disposition != want {
		t.Fatalf("Content-Disposition = %q, want %q", disposition, want)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("want header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,title,type,stage,status") {
		t.Fatalf("header row = %q", lines[0])
	}
}

func TestJWTGuardProtectsRoutes(t *testing.T) {
	secret := []byte("review-secret")
	srv, _ := newTestServer(t, WithGuard(JWTGuard(secret)))
	base := srv.URL + "/api/v1/reviews"

	resp := doJSON(t, http.MethodGet, base, nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, base, nil, map[string]string{"Authorization": "Bearer garbage"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", resp.StatusCode)
	}

	token, err := SignToken(secret, "user-1", "Dana", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	resp = doJSON(t, http.MethodGet, base, nil, map[string]string{"Authorization": "Bearer " + token})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status = %d", resp.StatusCode)
	}
}

func TestEventsReachBroadcaster(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	srv, _ := newTestServer(t, WithBroadcaster(broadcaster))
	base := srv.URL + "/api/v1/reviews"

	resp := doJSON(t, http.MethodPost, base, map[string]any{"title": "Form"}, nil)
	item := decodeBody[review.Item](t, resp)

	doJSON(t, http.MethodPost, base+"/"+item.ID+"/comments", map[string]any{"body": "hi"}, nil)
	doJSON(t, http.MethodDelete, base+"/"+item.ID, nil, nil)

	got := broadcaster.types()
	want := []string{EventItemCreated, EventCommentCreated, EventItemDeleted}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}
