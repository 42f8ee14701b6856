package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/jmehdipour/rfm-dashboard/internal/dashboard"
	"github.com/jmehdipour/rfm-dashboard/internal/model"
	"github.com/jmehdipour/rfm-dashboard/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newDashboardCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "dashboard",
		Short: "Read the RFM dashboard of the logged-in account",
	}
	c.AddCommand(
		analysisCmd(),
		rankingCmd(),
		uploadCmd(),
		filesCmd(),
		downloadCmd(),
		analyticsCmd(),
		insightsCmd(),
	)
	return c
}

// withDashboard wires the client, requires an authenticated session and runs fn.
func withDashboard(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.initSession(ctx, true); err != nil {
		return err
	}
	return fn(ctx, a)
}

func analysisCmd() *cobra.Command {
	var segment, minMonetary string
	c := &cobra.Command{
		Use:   "analysis",
		Short: "Show the RFM table, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDashboard(cmd, func(ctx context.Context, a *app) error {
				if err := a.dash.ApplyFilters(ctx, segment, minMonetary); err != nil {
					return err
				}
				snap := a.dash.Snapshot()
				out := cmd.OutOrStdout()
				printMetrics(out, snap.Metrics)
				if msg := snap.NoticeMessage(); msg != "" {
					fmt.Fprintln(out, msg)
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CUSTOMER\tRECENCY\tFREQUENCY\tMONETARY\tRFM\tSEGMENT")
				for _, r := range snap.Analysis.Rows {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
						r.CustomerID, r.Recency, r.Frequency, util.FormatMoney(r.Monetary.Float64()), r.RFMScore, r.Segment)
				}
				if err := tw.Flush(); err != nil {
					return err
				}

				fmt.Fprintln(out)
				for _, seg := range model.Segments {
					if n := snap.Analysis.Summary.SegmentCounts[seg.String()]; n > 0 {
						fmt.Fprintf(out, "%-20s %s\n", seg, util.FormatCount(n))
					}
				}
				return nil
			})
		},
	}
	c.Flags().StringVar(&segment, "segment", "", "only this segment, e.g. \"At Risk\"")
	c.Flags().StringVar(&minMonetary, "min-monetary", "", "only customers with at least this monetary value")
	return c
}

func rankingCmd() *cobra.Command {
	var city string
	c := &cobra.Command{
		Use:   "ranking",
		Short: "Show the top customers by total paid",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDashboard(cmd, func(ctx context.Context, a *app) error {
				// the city is recorded first so the ranking triggered by the
				// analysis load already uses it
				if err := a.dash.SetCity(ctx, city); err != nil {
					return err
				}
				if err := a.dash.LoadPrimaryAnalysis(ctx, model.FilterState{}); err != nil {
					return err
				}
				snap := a.dash.Snapshot()
				if msg := snap.NoticeMessage(); msg != "" {
					fmt.Fprintln(cmd.OutOrStdout(), msg)
					return nil
				}
				if msg := snap.Status[dashboard.ResourceRanking].Error; msg != "" {
					return errors.New(msg)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "#\tCUSTOMER\tCITY\tTOTAL PAID")
				for i, r := range snap.Ranking {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, r.CustomerID, r.City, util.FormatMoney(r.TotalPaid.Float64()))
				}
				return tw.Flush()
			})
		},
	}
	c.Flags().StringVar(&city, "city", "", "only customers from this city")
	return c
}

func uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a CSV or Excel transaction file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDashboard(cmd, func(ctx context.Context, a *app) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				st, err := f.Stat()
				if err != nil {
					return err
				}

				bar := progressbar.DefaultBytes(st.Size(), "uploading "+filepath.Base(args[0]))
				msg, err := a.dash.Upload(ctx, args[0], io.TeeReader(f, bar))
				_ = bar.Finish()
				if msg == "" {
					if text := a.dash.Snapshot().Status[dashboard.ResourceUpload].Error; text != "" && err != nil {
						return fmt.Errorf("%s: %w", text, err)
					}
					return err
				}

				snap := a.dash.Snapshot()
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, msg)
				printMetrics(out, snap.Metrics)
				fmt.Fprintf(out, "%s uploaded file(s)\n", util.FormatCount(len(snap.Files)))
				return err
			})
		},
	}
}

func filesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List previously uploaded files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDashboard(cmd, func(ctx context.Context, a *app) error {
				if err := a.dash.RefreshFiles(ctx); err != nil {
					return err
				}
				files := a.dash.Snapshot().Files
				if len(files) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No files uploaded yet.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tFILE\tUPLOADED")
				for _, f := range files {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", f.ID, f.OriginalFilename, humanize.Time(f.UploadedAt))
				}
				return tw.Flush()
			})
		},
	}
}

func downloadCmd() *cobra.Command {
	var output string
	c := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a previously uploaded file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid file id %q", args[0])
			}
			return withDashboard(cmd, func(ctx context.Context, a *app) error {
				if output == "" {
					output = fmt.Sprintf("upload-%d", id)
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				n, err := a.dash.DownloadFile(ctx, id, f)
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					_ = os.Remove(output)
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", output, util.FormatBytes(n))
				return nil
			})
		},
	}
	c.Flags().StringVarP(&output, "output", "o", "", "destination path (default upload-<id>)")
	return c
}

func analyticsCmd() *cobra.Command {
	var period string
	c := &cobra.Command{
		Use:       "analytics <revenue|customer|vip|avgOrderValue>",
		Short:     "Fetch one analytics bundle",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"revenue", "customer", "vip", "avgOrderValue"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := model.ParseModalKind(args[0])
			if !ok {
				return fmt.Errorf("unknown analytics bundle %q", args[0])
			}
			p, ok := model.ParseRevenuePeriod(period)
			if !ok {
				return fmt.Errorf("invalid period %q", period)
			}
			return withDashboard(cmd, func(ctx context.Context, a *app) error {
				a.dash.SetRevenuePeriod(p)
				if err := a.dash.OpenModal(ctx, kind); err != nil {
					if msg := a.dash.Snapshot().Modals[kind].Error; msg != "" {
						return fmt.Errorf("%s: %w", msg, err)
					}
					return err
				}

				b := a.dash.Snapshot().Bundles
				var doc any
				switch kind {
				case model.ModalRevenue:
					doc = b.Revenue
				case model.ModalCustomer:
					doc = b.Customer
				case model.ModalVIP:
					doc = b.VIP
				case model.ModalAvgOrderValue:
					doc = b.AvgOrderValue
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(doc); err != nil {
					return err
				}
				return enc.Close()
			})
		},
	}
	c.Flags().StringVar(&period, "period", "all", "revenue window: today|week|month|3m|6m|year|all")
	return c
}

func insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Generate AI insights on the current customer data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDashboard(cmd, func(ctx context.Context, a *app) error {
				if err := a.dash.LoadPrimaryAnalysis(ctx, model.FilterState{}); err != nil {
					return err
				}
				text, err := a.dash.GenerateInsights(ctx)
				if err != nil {
					if msg := a.dash.Snapshot().Status[dashboard.ResourceInsights].Error; msg != "" {
						return errors.New(msg)
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
}

func printMetrics(w io.Writer, m dashboard.Metrics) {
	fmt.Fprintf(w, "Customers: %s  Revenue: %s  Avg order: %s  VIP: %s\n",
		m.TotalCustomers.Count(), m.TotalRevenue.Money(), m.AvgOrderValue.Money(), m.VIPCount.Count())
}
