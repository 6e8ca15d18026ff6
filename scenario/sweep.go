package scenario

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/portsched/sim/naming"
)

// Sweep runs independent scenarios in parallel, at most parallelism at a
// time. Reports are returned in the order of the scenarios. The first error
// cancels the runs that have not finished.
func Sweep(
	ctx context.Context,
	scenarios []Scenario,
	maxTicks uint64,
	parallelism int,
) ([]Report, error) {
	reports := make([]Report, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for i, s := range scenarios {
		g.Go(func() error {
			r, err := MakeBuilder().
				WithScenario(s).
				Build(naming.Indexed("Sweep", "Run", i))
			if err != nil {
				return fmt.Errorf("scenario %d (%s): %w", i, s.Name, err)
			}

			reports[i], err = r.Run(ctx, maxTicks)
			if err != nil {
				return fmt.Errorf("scenario %d (%s): %w", i, s.Name, err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return reports, err
	}

	return reports, nil
}
