package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/tableside/pkg/floor"
)

// Floor prints the floor board as a waiter would see it at now.
func Floor(ctx context.Context, config Settings, logger apt.Logger, out io.Writer, now time.Time) error {
	client, err := newClient(config, logger)
	if err != nil {
		return err
	}

	tiers := floor.DefaultTiers()
	for key, target := range map[string]*time.Duration{
		"urgency.warning": &tiers.Warning,
		"urgency.danger":  &tiers.Danger,
	} {
		raw, ok := config.GetString(key)
		if !ok || raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, raw, err)
		}
		*target = d
	}

	tables, err := client.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	orders, err := client.ListOpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("list open orders: %w", err)
	}

	resolver := floor.NewResolver(orders, now, tiers)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tZONE\tSTATUS\tORDERS\tITEMS\tTOTAL\tTIME\tURGENCY")
	for _, view := range resolver.Board(tables) {
		zone := view.Table.ZoneName()
		if zone == "" {
			zone = "-"
		}
		if view.Summary == nil {
			fmt.Fprintf(tw, "%d\t%s\t%s\t-\t-\t-\t-\t-\n", view.Table.Number, zone, view.Status.Label())
			continue
		}
		s := view.Summary
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			view.Table.Number, zone, view.Status.Label(),
			s.OrderCount, s.TotalItems, s.TotalAmount.StringFixed(2), s.Duration, s.Urgency.Label())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	stats := resolver.Stats(tables)
	fmt.Fprintf(out, "\n%d available, %d occupied, %d open orders, %s pending\n",
		stats.AvailableTables, stats.OccupiedTables, stats.ActiveOrders, stats.PendingSales.StringFixed(2))
	return nil
}
