package server

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pallet-group/partsdb/internal/config"
	"github.com/pallet-group/partsdb/pkg/bazaarvoice"
)

// handleHiddenSearch fans the query out to every configured international
// Costco region: keyword search regions first, then ID-lookup regions. The
// fan-out runs concurrently but results keep the configured region order.
// Any upstream failure fails the whole request.
func (s *Server) handleHiddenSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	searchRegions := s.cfg.Costco.SearchRegions
	partRegions := s.cfg.Costco.PartRegions

	slots := make([][]bazaarvoice.Item, len(searchRegions)+len(partRegions))
	g, ctx := errgroup.WithContext(r.Context())

	for i, rc := range searchRegions {
		region := toRegion(rc)
		slot := i
		g.Go(func() error {
			resp, err := s.costco.Search(ctx, region, query)
			if err != nil {
				return err
			}
			slots[slot] = bazaarvoice.ExtractAll(resp, region)
			return nil
		})
	}

	for i, rc := range partRegions {
		region := toRegion(rc)
		slot := len(searchRegions) + i
		g.Go(func() error {
			resp, err := s.costco.LookupByID(ctx, region, query)
			if err != nil {
				return err
			}
			slots[slot] = bazaarvoice.ExtractFirst(resp, region)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("hidden costco search failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream search failed")
		return
	}

	results := make([]bazaarvoice.Item, 0)
	for _, items := range slots {
		results = append(results, items...)
	}
	writeJSON(w, http.StatusOK, results)
}

func toRegion(rc config.Region) bazaarvoice.Region {
	return bazaarvoice.Region{
		Name:           rc.Name,
		Passkey:        rc.Passkey,
		Locale:         rc.Locale,
		ItemCodeSource: rc.ItemCodeSource,
	}
}
