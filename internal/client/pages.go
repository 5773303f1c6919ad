package client

import (
	"context"
	"fmt"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
)

// PartialResult reports a paginated walk that stopped early. Completed
// pages are returned alongside it, so callers keep what was assembled.
type PartialResult struct {
	Completed int
	Err       error
}

func (p *PartialResult) Error() string {
	return fmt.Sprintf("partial result after %d page(s): %v", p.Completed, p.Err)
}

func (p *PartialResult) Unwrap() error { return p.Err }

// walkPages fetches page 1..totalPages in order. Page N is requested
// only once page N-1 has resolved, so totalPages from the live metadata
// steers the walk; each page is cache-keyed independently.
func walkPages[Q any, T any](ctx context.Context, q Q, withPage func(Q, int) Q, fetch func(context.Context, Q) (model.Page[T], error)) ([]T, error) {
	var items []T
	total := 1
	for page := 1; page <= total; page++ {
		p, err := fetch(ctx, withPage(q, page))
		if err != nil {
			return items, &PartialResult{Completed: page - 1, Err: err}
		}
		items = append(items, p.Items...)
		if p.Meta.TotalPages > 0 {
			total = p.Meta.TotalPages
		}
	}
	return items, nil
}

// PoliticiansAll walks every page of a politician query.
func (c *Client) PoliticiansAll(ctx context.Context, q query.Politicians) ([]model.Politician, error) {
	return walkPages(ctx, q, query.Politicians.WithPage, c.Politicians)
}

// IssuersAll walks every page of an issuer query.
func (c *Client) IssuersAll(ctx context.Context, q query.Issuers) ([]model.Issuer, error) {
	return walkPages(ctx, q, query.Issuers.WithPage, c.Issuers)
}

// TradesAll walks every page of a trade query.
func (c *Client) TradesAll(ctx context.Context, q query.Trades) ([]model.Trade, error) {
	return walkPages(ctx, q, query.Trades.WithPage, c.Trades)
}

// CandidatesAll walks every page of a candidate query.
func (c *Client) CandidatesAll(ctx context.Context, q query.Candidates) ([]model.Candidate, error) {
	return walkPages(ctx, q, query.Candidates.WithPage, c.Candidates)
}

// CommitteesAll walks every page of a committee query.
func (c *Client) CommitteesAll(ctx context.Context, q query.Committees) ([]model.Committee, error) {
	return walkPages(ctx, q, query.Committees.WithPage, c.Committees)
}

// ContributionsAll walks every page of a contribution query.
func (c *Client) ContributionsAll(ctx context.Context, q query.Contributions) ([]model.Contribution, error) {
	return walkPages(ctx, q, query.Contributions.WithPage, c.Contributions)
}
