// Package main prints the order history for a date range, with an optional CSV export.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/your-org/auto-buy-bot/internal/app"
	"github.com/your-org/auto-buy-bot/internal/config"
	"github.com/your-org/auto-buy-bot/internal/csvwriter"
	"github.com/your-org/auto-buy-bot/internal/report"
	"github.com/your-org/auto-buy-bot/pkg/logger"
)

// orderLister is the part of the reporter this command needs.
type orderLister interface {
	Orders(ctx context.Context, q report.OrderQuery) report.OrdersView
}

type options struct {
	start, end string
	filter     report.OrderFilter
	csvPath    string
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	envPath := flag.String("env", ".env", "Path to an optional .env file")
	var opts options
	flag.StringVar(&opts.start, "start", "", "Start of the window (YYYY-MM-DD or RFC 3339); defaults to the lookback")
	flag.StringVar(&opts.end, "end", "", "End of the window (YYYY-MM-DD or RFC 3339); defaults to now")
	flag.StringVar(&opts.filter.Status, "status", report.FilterAll, "Status filter: all, open, filled, canceled, expired, rejected")
	flag.StringVar(&opts.filter.Side, "side", report.FilterAll, "Side filter: all, buy, sell")
	flag.StringVar(&opts.filter.Symbol, "symbol", "", "Case-insensitive symbol substring")
	flag.StringVar(&opts.csvPath, "csv", "", "Also write the orders to this CSV file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: cfg.Log.Level})
	defer logger.Sync()

	if cfg.APIKey == "" || cfg.APISecret == "" {
		logger.Fatal("APCA_API_KEY_ID and APCA_API_SECRET_KEY must be set")
	}
	reporter := report.NewReporter(app.NewClient(cfg), cfg.OrdersLookback)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := run(ctx, reporter, opts, os.Stdout); err != nil {
		logger.Errorf("Report failed: %v", err)
		cancel()
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, lister orderLister, opts options, out io.Writer) error {
	q, err := report.ParseOrderQuery(opts.start, opts.end, opts.filter)
	if err != nil {
		return err
	}
	view := lister.Orders(ctx, q)
	if view.Err != nil {
		return errors.New(view.Message)
	}

	if len(view.Orders) == 0 {
		fmt.Fprintln(out, view.Message)
	} else {
		if err := printOrders(out, view.Orders); err != nil {
			return err
		}
		fmt.Fprintln(out)
		if err := printSummary(out, report.Summarize(view.Orders)); err != nil {
			return err
		}
	}

	if opts.csvPath != "" {
		if err := exportCSV(opts.csvPath, view.Orders); err != nil {
			return err
		}
		logger.Infof("Wrote %d orders to %s", len(view.Orders), opts.csvPath)
	}
	return nil
}

func printOrders(out io.Writer, rows []report.OrderRow) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	writeRow(tw, report.OrderHeader)
	for _, row := range rows {
		writeRow(tw, row.Cells())
	}
	return tw.Flush()
}

func printSummary(out io.Writer, s report.Summary) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total orders:\t%d\n", s.TotalOrders)
	fmt.Fprintf(tw, "Filled / Canceled / Rejected / Open:\t%d / %d / %d / %d\n", s.FilledOrders, s.CanceledOrders, s.RejectedOrders, s.OpenOrders)
	fmt.Fprintf(tw, "Fill rate:\t%.2f%%\n", s.FillRate)
	fmt.Fprintf(tw, "Bought:\t%s @ %s\n", s.BoughtQty.String(), report.FormatMoney(s.AvgBuyPrice))
	fmt.Fprintf(tw, "Sold:\t%s @ %s\n", s.SoldQty.String(), report.FormatMoney(s.AvgSellPrice))
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}

func exportCSV(path string, rows []report.OrderRow) error {
	w, err := csvwriter.NewWriter(path, logger.Zap("csv"))
	if err != nil {
		return err
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = append([]string{row.ID}, row.Cells()...)
	}
	if err := w.WriteTable(append([]string{"ID"}, report.OrderHeader...), cells); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
