package reviews

import (
	"fmt"
	"net/http"
	"strings"
)

// Mux is the minimal interface required to register handlers. It is
// satisfied by *http.ServeMux (Go 1.22+ patterns with methods and path
// values are used).
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// RegisterRoutes mounts the dashboard API under basePath on mux and returns
// the mount path.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, NewOptions(fns...))
}

// RegisterRoutesWithOptions mounts a pre-configured handler.
func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("reviews: missing mux")
	}

	h := HandlerWithOptions(opts)
	base := mountPath(basePath, h.opts.RoutePath)

	mux.Handle("GET "+base, h.guarded(h.handleList))
	mux.Handle("POST "+base, h.guarded(h.handleCreate))
	mux.Handle("GET "+base+"/export", h.guarded(h.handleExport))
	mux.Handle("GET "+base+"/{id}", h.guarded(h.handleGet))
	mux.Handle("PUT "+base+"/{id}", h.guarded(h.handleUpdate))
	mux.Handle("DELETE "+base+"/{id}", h.guarded(h.handleDelete))

	mux.Handle("GET "+base+"/{id}/comments", h.guarded(h.handleListComments))
	mux.Handle("POST "+base+"/{id}/comments", h.guarded(h.handleCreateComment))
	mux.Handle("PUT "+base+"/{id}/comments/{commentID}", h.guarded(h.handleUpdateComment))
	mux.Handle("DELETE "+base+"/{id}/comments/{commentID}", h.guarded(h.handleDeleteComment))

	mux.Handle("GET "+base+"/{id}/assignments", h.guarded(h.handleListAssignments))
	mux.Handle("POST "+base+"/{id}/assignments", h.guarded(h.handleCreateAssignment))
	mux.Handle("DELETE "+base+"/{id}/assignments/{assignmentID}", h.guarded(h.handleDeleteAssignment))

	return base, nil
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
