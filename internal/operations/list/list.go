package list

import (
	"context"
	"log/slog"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/store"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// Lister lists source parts from a store.
type Lister struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a new Lister. A nil logger disables logging.
func New(s store.Store, logger *slog.Logger) *Lister {
	return &Lister{
		store:  s,
		logger: logger,
	}
}

// ListParts returns every object under prefix whose key ends in suffix.
// An empty suffix matches every key.
func (l *Lister) ListParts(ctx context.Context, prefix, suffix string) ([]s3types.Part, error) {
	var parts []s3types.Part

	paginator := l.NewPaginator(prefix)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		matched := 0
		for _, obj := range page.Objects {
			if strings.HasSuffix(obj.Key, suffix) {
				parts = append(parts, obj)
				matched++
			}
		}

		if l.logger != nil {
			l.logger.DebugContext(ctx, "listed page",
				"prefix", prefix,
				"page", paginator.Pages(),
				"objects", len(page.Objects),
				"matched", matched,
				"marker", paginator.Marker(),
			)
		}
	}

	return parts, nil
}

// NewPaginator creates a paginator over the objects under prefix.
func (l *Lister) NewPaginator(prefix string) *Paginator {
	return &Paginator{
		store:     l.store,
		prefix:    prefix,
		firstPage: true,
	}
}

// Paginator walks a marker-paginated listing one page at a time.
type Paginator struct {
	store        store.Store
	prefix       string
	marker       string
	pages        int
	hasMorePages bool
	firstPage    bool
}

// HasMorePages returns true if there are more pages to fetch.
func (p *Paginator) HasMorePages() bool {
	return p.firstPage || p.hasMorePages
}

// NextPage fetches the next page. The marker for the following page is the
// last key of this one.
func (p *Paginator) NextPage(ctx context.Context) (*store.ListPage, error) {
	page, err := p.store.ListObjects(ctx, p.prefix, p.marker)
	if err != nil {
		return nil, err
	}

	p.firstPage = false
	p.pages++
	p.hasMorePages = page.IsTruncated

	if n := len(page.Objects); n > 0 {
		p.marker = page.Objects[n-1].Key
	} else if page.IsTruncated {
		p.hasMorePages = false
		return nil, errors.NewCodedError(errors.CodeListingFailed, "listParts", errors.ErrInvalidListing).
			WithBucket(p.store.Bucket()).
			WithKey(p.prefix)
	}

	return page, nil
}

// Marker returns the key the next page starts after.
func (p *Paginator) Marker() string {
	return p.marker
}

// Pages returns the number of pages fetched so far.
func (p *Paginator) Pages() int {
	return p.pages
}
