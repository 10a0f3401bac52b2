package translator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/regmap"
)

// TranslateAll translates independent configurations concurrently. Results
// line up with cfgs. The first failure cancels the remaining work and is
// returned.
func (t *Translator) TranslateAll(ctx context.Context, cfgs []*regmap.Configuration) ([]*PairSet, error) {
	results := make([]*PairSet, len(cfgs))
	g, ctx := errgroup.WithContext(ctx)
	for i, cfg := range cfgs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			set, err := t.Translate(cfg)
			if err != nil {
				return err
			}
			results[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
