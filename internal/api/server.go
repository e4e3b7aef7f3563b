package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/go-logr/logr"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
)

const shutdownTimeout = 5 * time.Second

// Server is the projection HTTP server. It runs on every replica.
type Server struct {
	reader  client.Reader
	addr    string
	version string
	log     logr.Logger
	mux     *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithLogger sets the server logger.
func WithLogger(l logr.Logger) Option {
	return func(s *Server) { s.log = l }
}

// NewServer returns a server listening on addr that reads nodes from reader.
func NewServer(reader client.Reader, addr string, opts ...Option) *Server {
	s := &Server{
		reader:  reader,
		addr:    addr,
		version: "dev",
		log:     logr.Discard(),
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /health", s.health)
	s.mux.HandleFunc("GET /api/v1/nodes", s.listNodes)
	s.mux.HandleFunc("GET /api/v1/nodes/{namespace}/{name}", s.getNode)
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
	})
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	return ListenAndServe(ctx, s.addr, s.mux, s.log.WithValues("server", "node-api"))
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	return Serve(ctx, ln, s.mux, s.log.WithValues("server", "node-api"))
}

// ListenAndServe serves h on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log logr.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return Serve(ctx, ln, h, log)
}

// Serve serves h on ln until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, log logr.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	log.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Version: s.version})
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	var opts []client.ListOption
	if ns := r.URL.Query().Get("namespace"); ns != "" {
		opts = append(opts, client.InNamespace(ns))
	}

	list := &stellarv1alpha1.StellarNodeList{}
	if err := s.reader.List(r.Context(), list, opts...); err != nil {
		s.log.Error(err, "failed to list nodes")
		writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}

	items := make([]NodeSummary, 0, len(list.Items))
	for i := range list.Items {
		items = append(items, SummaryOf(&list.Items[i]))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Namespace != items[j].Namespace {
			return items[i].Namespace < items[j].Namespace
		}
		return items[i].Name < items[j].Name
	})

	writeJSON(w, http.StatusOK, NodeListResponse{Items: items, Total: len(items)})
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	key := types.NamespacedName{
		Namespace: r.PathValue("namespace"),
		Name:      r.PathValue("name"),
	}

	node := &stellarv1alpha1.StellarNode{}
	if err := s.reader.Get(r.Context(), key, node); err != nil {
		if apierrors.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("node %s not found", key))
			return
		}
		s.log.Error(err, "failed to get node", "node", key)
		writeError(w, http.StatusInternalServerError, "get_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, detailOf(node))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
