package client

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/resilience"
)

// resolveConcurrency bounds parallel side-table lookups; most hit cache.
const resolveConcurrency = 8

// TradeRefs is the side table for a trade set: full politician and
// issuer records keyed by ID. Trades reference these by ID only, which
// keeps the records deduplicated across trades.
type TradeRefs struct {
	Politicians map[model.PoliticianID]model.Politician
	Issuers     map[model.IssuerID]model.Issuer
}

// Resolve looks up the politician and issuer records referenced by a
// trade set and returns the side table plus the trades whose references
// all resolved. A trade referencing an unknown ID is dropped with a
// warning, never silently rewritten. Errors other than not-found abort
// the whole resolve.
func (c *Client) Resolve(ctx context.Context, trades []model.Trade) (TradeRefs, []model.Trade, error) {
	refs := TradeRefs{
		Politicians: make(map[model.PoliticianID]model.Politician),
		Issuers:     make(map[model.IssuerID]model.Issuer),
	}

	politicianIDs := make(map[model.PoliticianID]struct{})
	issuerIDs := make(map[model.IssuerID]struct{})
	for _, t := range trades {
		if t.Politician != "" {
			politicianIDs[t.Politician] = struct{}{}
		}
		if t.Issuer != "" {
			issuerIDs[t.Issuer] = struct{}{}
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)

	for id := range politicianIDs {
		g.Go(func() error {
			p, err := c.Politician(gctx, id)
			if errors.Is(err, resilience.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			refs.Politicians[id] = p
			mu.Unlock()
			return nil
		})
	}
	for id := range issuerIDs {
		g.Go(func() error {
			iss, err := c.Issuer(gctx, id)
			if errors.Is(err, resilience.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			refs.Issuers[id] = iss
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return TradeRefs{}, nil, err
	}

	kept := make([]model.Trade, 0, len(trades))
	for _, t := range trades {
		_, havePol := refs.Politicians[t.Politician]
		_, haveIss := refs.Issuers[t.Issuer]
		if !havePol || !haveIss {
			zap.L().Warn("client: dropping trade with unresolvable refs",
				zap.String("trade", t.ID().String()),
				zap.String("politician", string(t.Politician)),
				zap.String("issuer", string(t.Issuer)),
				zap.Bool("politician_resolved", havePol),
				zap.Bool("issuer_resolved", haveIss))
			continue
		}
		kept = append(kept, t)
	}
	return refs, kept, nil
}
