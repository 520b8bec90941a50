package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/appetiteclub/apt"
	"golang.org/x/sync/errgroup"
)

// CheckAPI verifies the POS API answers and reports the size of every
// collection the waiter service reads.
func CheckAPI(ctx context.Context, config Settings, logger apt.Logger, out io.Writer) error {
	client, err := newClient(config, logger)
	if err != nil {
		return err
	}

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("ping pos api: %w", err)
	}
	logger.Info("POS API reachable")

	var tables, recipes, containers, groups, orders int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := client.ListTables(gctx)
		tables = len(items)
		return wrap("tables", err)
	})
	g.Go(func() error {
		items, err := client.ListRecipes(gctx)
		recipes = len(items)
		return wrap("recipes", err)
	})
	g.Go(func() error {
		items, err := client.ListContainers(gctx)
		containers = len(items)
		return wrap("containers", err)
	})
	g.Go(func() error {
		items, err := client.ListGroups(gctx)
		groups = len(items)
		return wrap("groups", err)
	})
	g.Go(func() error {
		items, err := client.ListOpenOrders(gctx)
		orders = len(items)
		return wrap("open orders", err)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(out, "%-12s %d\n", "tables", tables)
	fmt.Fprintf(out, "%-12s %d\n", "recipes", recipes)
	fmt.Fprintf(out, "%-12s %d\n", "containers", containers)
	fmt.Fprintf(out, "%-12s %d\n", "groups", groups)
	fmt.Fprintf(out, "%-12s %d\n", "open orders", orders)
	return nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("list %s: %w", what, err)
	}
	return nil
}
