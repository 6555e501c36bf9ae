// Package debugserver implements the read-only debug/admin HTTP surface
// over a gcsfs.FileSystem: stat, list, and cat endpoints plus Prometheus
// metrics, for operators inspecting a running deployment. It never
// accepts writes; every route is a read against the facade.
package debugserver

import (
	"context"
	"fmt"
	"net/http"

	apierrors "github.com/Spider8801/gcsfs/internal/errors"
	"github.com/Spider8801/gcsfs"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// catChunkSize bounds a single read issued by /cat; larger files are
// served in one response by looping reads until the stat-reported size
// has been written.
const catChunkSize = 4 << 20

// Server is the debug/admin HTTP server. It holds no state of its own
// beyond the FileSystem it inspects.
type Server struct {
	fs         *gcsfs.FileSystem
	router     chi.Router
	api        huma.API
	httpServer *http.Server
}

// HealthBody is the JSON body returned by the health check endpoint.
type HealthBody struct {
	Status string `json:"status" example:"ok" doc:"Health status"`
}

type HealthOutput struct {
	Body HealthBody
}

// StatInput is the query parameters for GET /stat.
type StatInput struct {
	Path string `query:"path" required:"true" doc:"gs:// URI to stat"`
}

// StatBody is the JSON body returned by GET /stat.
type StatBody struct {
	Size        int64  `json:"size"`
	ModTime     string `json:"mod_time"`
	IsDirectory bool   `json:"is_directory"`
	Generation  int64  `json:"generation"`
}

type StatOutput struct {
	Body StatBody
}

// ListInput is the query parameters for GET /list.
type ListInput struct {
	Path      string `query:"path" required:"true" doc:"gs:// directory URI to list"`
	Recursive bool   `query:"recursive" doc:"list objects matching the glob path+'*' instead of the children; '*' does not match '/', so subdirectories are not descended into"`
}

// ListBody is the JSON body returned by GET /list.
type ListBody struct {
	Entries []string `json:"entries"`
}

type ListOutput struct {
	Body ListBody
}

// New builds a Server wired against fs.
func New(fs *gcsfs.FileSystem) *Server {
	router := chi.NewMux()

	humaConfig := huma.DefaultConfig("gcsfs debug API", "1.0.0")
	humaConfig.DocsPath = "/docs"
	humaConfig.OpenAPIPath = "/openapi"
	api := humachi.New(router, humaConfig)

	s := &Server{fs: fs, router: router, api: api}
	s.registerRoutes()
	return s
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	var handler http.Handler = s.router
	handler = commonHeaders(handler)
	handler = metricsMiddleware(handler)

	s.httpServer = &http.Server{Addr: addr, Handler: handler}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"System"},
	}, func(ctx context.Context, input *struct{}) (*HealthOutput, error) {
		return &HealthOutput{Body: HealthBody{Status: "ok"}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stat-path",
		Method:      http.MethodGet,
		Path:        "/stat",
		Summary:     "Stat a gs:// path",
		Tags:        []string{"Filesystem"},
	}, func(ctx context.Context, input *StatInput) (*StatOutput, error) {
		stats, err := s.fs.Stat(ctx, input.Path)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StatOutput{Body: StatBody{
			Size:        stats.Size,
			ModTime:     stats.ModTime.Format("2006-01-02T15:04:05Z07:00"),
			IsDirectory: stats.IsDirectory,
			Generation:  stats.Generation,
		}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-path",
		Method:      http.MethodGet,
		Path:        "/list",
		Summary:     "List children of a gs:// directory",
		Tags:        []string{"Filesystem"},
	}, func(ctx context.Context, input *ListInput) (*ListOutput, error) {
		var entries []string
		var err error
		if input.Recursive {
			entries, err = s.fs.GetMatchingPaths(ctx, input.Path+"*")
		} else {
			entries, err = s.fs.GetChildren(ctx, input.Path)
		}
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListOutput{Body: ListBody{Entries: entries}}, nil
	})

	// /cat streams raw object bytes; this is not representable as a
	// typed Huma JSON body, so it is registered directly on the router,
	// mirroring the teacher's mix of Huma-typed and raw chi routes.
	s.router.Get("/cat", s.handleCat)

	s.router.Handle("/metrics", promhttp.Handler())
}

func (s *Server) handleCat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "missing path query parameter", http.StatusBadRequest)
		return
	}

	h, err := s.fs.OpenForRead(ctx, path)
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	defer h.Close()

	stats, err := s.fs.Stat(ctx, path)
	if err != nil {
		writeHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", stats.Size))

	var offset int64
	for offset < stats.Size {
		n := int64(catChunkSize)
		if remaining := stats.Size - offset; remaining < n {
			n = remaining
		}
		data, err := h.Read(ctx, offset, n)
		if err != nil && !gcsfs.IsOutOfRange(err) {
			http.Error(w, err.Error(), apierrors.HTTPStatus(gcsfs.KindOf(err)))
			return
		}
		if _, err := w.Write(data); err != nil {
			return
		}
		offset += int64(len(data))
		if len(data) == 0 {
			break
		}
	}
}

func writeHTTPError(w http.ResponseWriter, err error) {
	apiErr := apierrors.FromError(err)
	http.Error(w, apiErr.Message, apiErr.HTTPStatus)
}

func toHumaError(err error) error {
	apiErr := apierrors.FromError(err)
	return huma.Error(apiErr.HTTPStatus, apiErr.Message)
}
