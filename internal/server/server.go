// Package server exposes the catalog search API: local Costco and Amazon
// catalog search, manifest search, the international Costco proxy search,
// and the product image file server.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pallet-group/partsdb/internal/catalog"
	"github.com/pallet-group/partsdb/internal/config"
	"github.com/pallet-group/partsdb/internal/db"
	"github.com/pallet-group/partsdb/pkg/bazaarvoice"
)

// CostcoAPI abstracts the Bazaarvoice client for testing.
type CostcoAPI interface {
	Search(ctx context.Context, region bazaarvoice.Region, terms string) (*bazaarvoice.Response, error)
	LookupByID(ctx context.Context, region bazaarvoice.Region, id string) (*bazaarvoice.Response, error)
}

// Ensure the real client satisfies the interface.
var _ CostcoAPI = (*bazaarvoice.Client)(nil)

// Server holds the request-scoped dependencies of every handler.
type Server struct {
	pool   db.Pool
	costco CostcoAPI
	cfg    config.Config
}

// New creates a Server.
func New(pool db.Pool, costco CostcoAPI, cfg config.Config) *Server {
	return &Server{pool: pool, costco: costco, cfg: cfg}
}

// Routes builds the chi router with all API endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/image/*", s.handleImage)
	r.Get("/costco/search", s.handleCatalogSearch(catalog.Costco))
	r.Get("/amazon/search", s.handleCatalogSearch(catalog.Amazon))
	r.Get("/costco_manifest/search", s.handleManifestSearch)
	r.Get("/hidden_costco/search", s.handleHiddenSearch)

	return r
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleImage serves a product image from the configured image root.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if rel == "" || strings.Contains(rel, "..") {
		writeError(w, http.StatusBadRequest, "invalid image path")
		return
	}
	http.ServeFile(w, r, filepath.Join(s.cfg.Server.ImageRoot, filepath.Clean("/"+rel)))
}

// handleCatalogSearch serves the two-phase search for one local catalog.
func (s *Server) handleCatalogSearch(cat catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if strings.TrimSpace(query) == "" {
			writeError(w, http.StatusBadRequest, "query parameter is required")
			return
		}

		results, err := catalog.SearchProducts(r.Context(), s.pool, cat, query)
		if err != nil {
			zap.L().Error("catalog search failed",
				zap.String("catalog", cat.ProductTable),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
		if results == nil {
			results = []catalog.Product{}
		}
		writeJSON(w, http.StatusOK, results)
	}
}

// manifestResult is the wire shape of a manifest hit; the date serializes
// as YYYY-MM-DD or null.
type manifestResult struct {
	PartNumber  string  `json:"part_number"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Date        *string `json:"date"`
}

func (s *Server) handleManifestSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	rows, err := catalog.SearchManifest(r.Context(), s.pool, query)
	if err != nil {
		zap.L().Error("manifest search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	results := make([]manifestResult, 0, len(rows))
	for _, row := range rows {
		res := manifestResult{
			PartNumber:  row.PartNumber,
			Description: row.Description,
			Price:       row.Price,
		}
		if row.Date != nil {
			d := row.Date.Format("2006-01-02")
			res.Date = &d
		}
		results = append(results, res)
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
