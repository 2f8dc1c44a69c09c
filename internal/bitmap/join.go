package bitmap

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one load in a LoadAll batch.
type Result struct {
	URI   string
	Image image.Image
	Err   error
}

// LoadAll loads every source in parallel and waits for all of them. A
// failed load is reported in its Result and never cancels the others.
// Results are returned in input order.
func LoadAll(ctx context.Context, loader Loader, uris []string) []Result {
	results := make([]Result, len(uris))

	var g errgroup.Group
	for i, uri := range uris {
		i, uri := i, uri
		results[i].URI = uri
		g.Go(func() error {
			img, err := loader.Load(ctx, uri)
			results[i].Image = img
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	return results
}
