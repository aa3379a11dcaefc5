package reviews

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/formstudio-io/go-formstudio/pkg/review"
)

// HTTPError lets guards and handlers choose their response status.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError pairs an error with an HTTP status code.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

// StatusCode implements HTTPError.
func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Handler serves the dashboard API. Build it with NewHandler and mount it
// via RegisterRoutes.
type Handler struct {
	opts Options
}

// NewHandler constructs a Handler from options.
func NewHandler(fns ...OptionFn) *Handler {
	return &Handler{opts: NewOptions(fns...)}
}

// HandlerWithOptions constructs a Handler from a pre-built Options value.
func HandlerWithOptions(opts Options) *Handler {
	return &Handler{opts: NewOptions(func(o *Options) { *o = opts })}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.opts.Logger.Error("encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.StatusCode()
	case errors.Is(err, review.ErrNotFound):
		status = http.StatusNotFound
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// guarded wraps an endpoint with the configured guard.
func (h *Handler) guarded(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.opts.Guard != nil {
			if err := h.opts.Guard(r); err != nil {
				h.writeError(w, err)
				return
			}
		}
		next(w, r)
	})
}

func (h *Handler) publish(itemID, eventType string, payload any) {
	if h.opts.Broadcaster == nil {
		return
	}
	h.opts.Broadcaster.Publish(itemID, Event{Type: eventType, ItemID: itemID, Payload: payload})
}

func authorFrom(r *http.Request) string {
	if author := strings.TrimSpace(r.Header.Get("X-Review-Author")); author != "" {
		return author
	}
	return "anonymous"
}

// handleList serves GET {base} with filters and pagination from the query
// string. Multi-value dimensions accept comma-separated values.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := review.Filter{
		ItemTypes: splitParam(query.Get("type")),
		Stages:    splitParam(query.Get("stage")),
		Tags:      splitParam(query.Get("tag")),
		Assignee:  query.Get("assignee"),
		Search:    query.Get("q"),
	}
	for _, raw := range splitParam(query.Get("status")) {
		status := review.Status(raw)
		if !status.Valid() {
			h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: errors.New("unknown status " + strconv.Quote(raw))})
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range splitParam(query.Get("priority")) {
		priority := review.Priority(raw)
		if !priority.Valid() {
			h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: errors.New("unknown priority " + strconv.Quote(raw))})
			return
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	if raw := query.Get("due_from"); raw != "" {
		when, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: errors.New("invalid due_from date")})
			return
		}
		filter.DueFrom = &when
	}
	if raw := query.Get("due_to"); raw != "" {
		when, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: errors.New("invalid due_to date")})
			return
		}
		filter.DueTo = &when
	}

	page := review.Page{
		Offset:   parseIntParam(query.Get("offset"), 0),
		Limit:    parseIntParam(query.Get("limit"), h.opts.DefaultPageSize),
		MaxLimit: h.opts.MaxPageSize,
	}

	result, err := h.opts.Store.ListItems(r.Context(), filter, page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

type itemDetail struct {
	Item        review.Item         `json:"item"`
	Threads     []*review.Thread    `json:"threads"`
	Assignments []review.Assignment `json:"assignments"`
}

// handleGet serves GET {base}/{id}: the item plus its comment threads and
// assignments. The sort query selects thread ordering.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := h.opts.Store.GetItem(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	comments, err := h.opts.Store.ListComments(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	assignments, err := h.opts.Store.ListAssignments(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	threads := review.BuildThreads(comments, review.ParseThreadSort(r.URL.Query().Get("sort")))
	h.writeJSON(w, http.StatusOK, itemDetail{Item: item, Threads: threads, Assignments: assignments})
}

type itemRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ItemType    string          `json:"itemType"`
	Stage       string          `json:"stage"`
	Status      review.Status   `json:"status"`
	Priority    review.Priority `json:"priority"`
	Tags        []string        `json:"tags"`
	FormID      string          `json:"formId"`
	FormVersion int             `json:"formVersion"`
	DueDate     *time.Time      `json:"dueDate"`
}

// handleCreate serves POST {base}.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: errors.New("invalid request body")})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: errors.New("title is required")})
		return
	}

	item, err := h.opts.Store.CreateItem(r.Context(), review.Item{
		Title:       req.Title,
		Description: req.Description,
		ItemType:    req.ItemType,
		Stage:       req.Stage,
		Status:      req.Status,
		Priority:    req.Priority,
		Tags:        req.Tags,
		FormID:      req.FormID,
		FormVersion: req.FormVersion,
		DueDate:     req.DueDate,
		CreatedBy:   authorFrom(r),
	})
	if err != nil {
		h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: err})
		return
	}

	h.publish(item.ID, EventItemCreated, item)
	h.writeJSON(w, http.StatusCreated, item)
}

// handleUpdate serves PUT {base}/{id}.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.opts.Store.GetItem(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: errors.New("invalid request body")})
		return
	}

	if req.Title != "" {
		existing.Title = req.Title
	}
	if req.Description != "" {
		existing.Description = req.Description
	}
	if req.ItemType != "" {
		existing.ItemType = req.ItemType
	}
	if req.Stage != "" {
		existing.Stage = req.Stage
	}
	if req.Status != "" {
		existing.Status = req.Status
	}
	if req.Priority != "" {
		existing.Priority = req.Priority
	}
	if req.Tags != nil {
		existing.Tags = req.Tags
	}
	if req.DueDate != nil {
		existing.DueDate = req.DueDate
	}

	updated, err := h.opts.Store.UpdateItem(r.Context(), existing)
	if err != nil {
		h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: err})
		return
	}

	h.publish(updated.ID, EventItemUpdated, updated)
	h.writeJSON(w, http.StatusOK, updated)
}

// handleDelete serves DELETE {base}/{id}.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.opts.Store.DeleteItem(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.publish(id, EventItemDeleted, nil)
	h.writeJSON(w, http.StatusNoContent, nil)
}

// handleExport serves GET {base}/export as a CSV attachment over the same
// filters as the listing, without pagination.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := review.Filter{
		ItemTypes: splitParam(query.Get("type")),
		Stages:    splitParam(query.Get("stage")),
		Tags:      splitParam(query.Get("tag")),
		Assignee:  query.Get("assignee"),
		Search:    query.Get("q"),
	}
	for _, raw := range splitParam(query.Get("status")) {
		filter.Statuses = append(filter.Statuses, review.Status(raw))
	}
	for _, raw := range splitParam(query.Get("priority")) {
		filter.Priorities = append(filter.Priorities, review.Priority(raw))
	}

	// One page spanning the whole filtered set.
	result, err := h.opts.Store.ListItems(r.Context(), filter, review.Page{Limit: review.MaxPageSize})
	if err != nil {
		h.writeError(w, err)
		return
	}
	items := result.Items
	for result.HasNext {
		result, err = h.opts.Store.ListItems(r.Context(), filter, review.Page{
			Offset: result.Offset + result.Limit,
			Limit:  review.MaxPageSize,
		})
		if err != nil {
			h.writeError(w, err)
			return
		}
		items = append(items, result.Items...)
	}

	payload, err := review.ExportCSV(items)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+review.ExportFilename(time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		h.opts.Logger.Error("write csv export", "error", err)
	}
}

type commentRequest struct {
	ParentID string `json:"parentId"`
	Body     string `json:"body"`
}

// handleListComments serves GET {base}/{id}/comments as sorted threads.
func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.opts.Store.GetItem(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	comments, err := h.opts.Store.ListComments(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	threads := review.BuildThreads(comments, review.ParseThreadSort(r.URL.Query().Get("sort")))
	h.writeJSON(w, http.StatusOK, map[string]any{"threads": threads})
}

// handleCreateComment serves POST {base}/{id}/comments.
func (h *Handler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: errors.New("invalid request body")})
		return
	}

	comment, err := h.opts.Store.CreateComment(r.Context(), review.Comment{
		ItemID:   id,
		ParentID: req.ParentID,
		Author:   authorFrom(r),
		Body:     req.Body,
	})
	if err != nil {
		if errors.Is(err, review.ErrNotFound) {
			h.writeError(w, err)
		} else {
			h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: err})
		}
		return
	}

	h.publish(id, EventCommentCreated, comment)
	h.writeJSON(w, http.StatusCreated, comment)
}

// handleUpdateComment serves PUT {base}/{id}/comments/{commentID}.
func (h *Handler) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: errors.New("invalid request body")})
		return
	}

	comment, err := h.opts.Store.UpdateComment(r.Context(), review.Comment{
		ID:   r.PathValue("commentID"),
		Body: req.Body,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.publish(comment.ItemID, EventCommentUpdated, comment)
	h.writeJSON(w, http.StatusOK, comment)
}

// handleDeleteComment serves DELETE {base}/{id}/comments/{commentID}.
func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	commentID := r.PathValue("commentID")
	if err := h.opts.Store.DeleteComment(r.Context(), commentID); err != nil {
		h.writeError(w, err)
		return
	}
	h.publish(id, EventCommentDeleted, map[string]string{"id": commentID})
	h.writeJSON(w, http.StatusNoContent, nil)
}

type assignmentRequest struct {
	Assignee string `json:"assignee"`
	Role     string `json:"role"`
}

// handleListAssignments serves GET {base}/{id}/assignments.
func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.opts.Store.GetItem(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	assignments, err := h.opts.Store.ListAssignments(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}

// handleCreateAssignment serves POST {base}/{id}/assignments.
func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: errors.New("invalid request body")})
		return
	}

	assignment, err := h.opts.Store.CreateAssignment(r.Context(), review.Assignment{
		ItemID:     id,
		Assignee:   req.Assignee,
		Role:       req.Role,
		AssignedBy: authorFrom(r),
	})
	if err != nil {
		if errors.Is(err, review.ErrNotFound) {
			h.writeError(w, err)
		} else {
			h.writeError(w, StatusError{Code: http.StatusBadRequest, Err: err})
		}
		return
	}

	h.publish(id, EventAssignmentCreated, assignment)
	h.writeJSON(w, http.StatusCreated, assignment)
}

// handleDeleteAssignment serves DELETE {base}/{id}/assignments/{assignmentID}.
func (h *Handler) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	assignmentID := r.PathValue("assignmentID")
	if err := h.opts.Store.DeleteAssignment(r.Context(), assignmentID); err != nil {
		h.writeError(w, err)
		return
	}
	h.publish(id, EventAssignmentDeleted, map[string]string{"id": assignmentID})
	h.writeJSON(w, http.StatusNoContent, nil)
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseIntParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
