package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"RateSentinel/internal/collector"
	"RateSentinel/internal/comparator"
	"RateSentinel/internal/exporter"
	"RateSentinel/internal/model"
	"RateSentinel/internal/notifier"
	"RateSentinel/internal/scheduler"
	"RateSentinel/internal/strategy"
	"RateSentinel/internal/tracker"
)

func fetchCmd(a *app) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the current rate and append it to the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := a.tracker()
			if err != nil {
				return err
			}
			obs, err := tr.Fetch(cmd.Context(), collector.ParseMode(source))
			if err != nil {
				return err
			}
			printObservation(cmd.OutOrStdout(), tr.Pair(), obs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "auto", "source id, or auto for priority fallback")
	return cmd
}

func backfillCmd(a *app) *cobra.Command {
	var (
		source   string
		from, to string
		days     int
	)
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Fetch history and append the days newer than the latest stored date",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := comparator.ParseWindowDate(from)
			if err != nil {
				return err
			}
			end, err := comparator.ParseWindowDate(to)
			if err != nil {
				return err
			}
			var fromDay, toDay time.Time
			if end != nil {
				toDay = *end
			}
			switch {
			case start != nil:
				fromDay = *start
			case days > 0:
				fromDay = model.Day(time.Now()).AddDate(0, 0, -days)
			}

			tr, err := a.tracker()
			if err != nil {
				return err
			}
			res, err := tr.Backfill(cmd.Context(), collector.ParseMode(source), fromDay, toDay)
			if err != nil {
				return err
			}
			printBackfill(cmd.OutOrStdout(), tr.Pair(), res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "auto", "source id, or auto for priority fallback")
	cmd.Flags().StringVar(&from, "from", "", "first day YYYY-MM-DD (default: day after the latest stored date)")
	cmd.Flags().StringVar(&to, "to", "", "last day YYYY-MM-DD (default: today)")
	cmd.Flags().IntVar(&days, "days", 0, "start this many days back when --from is not given")
	return cmd
}

func recommendCmd(a *app) *cobra.Command {
	var (
		name   string
		window int
		short  int
		notify bool
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Run a strategy over the stored series",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = a.cfg.Strategy.Default
			}
			if window == 0 {
				window = a.cfg.Strategy.Window
			}
			if short == 0 {
				short = a.cfg.Strategy.ShortWindow
			}
			tr, err := a.tracker()
			if err != nil {
				return err
			}
			sig, err := tr.Recommend(name, strategy.Params{Window: window, ShortWindow: short})
			if err != nil {
				return err
			}
			printSignal(cmd.OutOrStdout(), tr.Pair(), sig)

			if notify {
				tn, err := a.notifier()
				if err != nil {
					return err
				}
				return tn.SendWithRetry(cmd.Context(), notifier.FormatSignal(tr.Pair(), sig), 3)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "strategy", "", "strategy id (see `sentinel strategies`)")
	cmd.Flags().IntVar(&window, "window", 0, "strategy window in observations (0: strategy default)")
	cmd.Flags().IntVar(&short, "short-window", 0, "short window of ma-cross (0: a third of --window)")
	cmd.Flags().BoolVar(&notify, "notify", false, "also send the signal to Telegram")
	return cmd
}

func compareCmd(a *app) *cobra.Command {
	var (
		period1, period2 string
		end1, end2       string
		days1, days2     int
		format, output   string
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare statistics of two periods",
		Long: `Compare mean, range and volatility of two windows of the stored series.

Without --period1 the first window is the most recent --days1 observations; without
--period2 the second window is the --days2 observations right before the first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w1, err := window(period1, end1, days1)
			if err != nil {
				return fmt.Errorf("period1: %w", err)
			}
			w2, err := window(period2, end2, days2)
			if err != nil {
				return fmt.Errorf("period2: %w", err)
			}
			var ex exporter.Exporter
			if format != "" {
				if ex, err = exporter.ForFormat(format); err != nil {
					return err
				}
			}

			tr, err := a.tracker()
			if err != nil {
				return err
			}
			res, err := tr.Compare(w1, w2)
			if err != nil {
				return err
			}
			printComparison(cmd.OutOrStdout(), res)

			if ex == nil {
				return nil
			}
			if output == "" {
				output = exporter.ComparisonFileName(ex, time.Now())
			}
			if err := exporter.WriteFile(output, func(w io.Writer) error { return ex.WriteComparison(w, res) }); err != nil {
				return err
			}
			log.Info().Str("file", output).Msg("comparison exported")
			return nil
		},
	}
	cmd.Flags().StringVar(&period1, "period1", "", "start date of period 1 (YYYY-MM-DD)")
	cmd.Flags().StringVar(&period2, "period2", "", "start date of period 2 (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end1, "end1", "", "end date of period 1, requires --period1")
	cmd.Flags().StringVar(&end2, "end2", "", "end date of period 2, requires --period2")
	cmd.Flags().IntVar(&days1, "days1", comparator.DefaultLength, "observations in period 1")
	cmd.Flags().IntVar(&days2, "days2", comparator.DefaultLength, "observations in period 2")
	cmd.Flags().StringVarP(&format, "export", "e", "", "also export the result: csv, json or excel")
	cmd.Flags().StringVarP(&output, "output", "o", "", "export file (default exchange_rate_comparison_<today>.<ext>)")
	return cmd
}

func window(start, end string, days int) (model.Window, error) {
	s, err := comparator.ParseWindowDate(start)
	if err != nil {
		return model.Window{}, err
	}
	e, err := comparator.ParseWindowDate(end)
	if err != nil {
		return model.Window{}, err
	}
	return model.Window{Start: s, End: e, Length: days}, nil
}

func exportCmd(a *app) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored series",
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := exporter.ForFormat(format)
			if err != nil {
				return err
			}
			tr, err := a.tracker()
			if err != nil {
				return err
			}
			series, err := tr.Series()
			if err != nil {
				return err
			}
			if series.Empty() {
				return fmt.Errorf("%w: no stored observations to export", model.ErrInsufficientData)
			}
			if output == "" {
				output = exporter.SeriesFileName(ex, time.Now())
			}
			if err := exporter.WriteFile(output, func(w io.Writer) error { return ex.WriteSeries(w, series) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d observations to %s\n", series.Len(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv, json or excel")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default exchange_rates_<today>.<ext>)")
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the available rate sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][2]string, 0)
			for _, s := range tracker.ListSources() {
				rows = append(rows, [2]string{s.Name, s.Description})
			}
			return printList(cmd.OutOrStdout(), rows)
		},
	}
}

func strategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the available strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][2]string, 0)
			for _, s := range tracker.ListStrategies() {
				rows = append(rows, [2]string{s.Name, s.Description})
			}
			return printList(cmd.OutOrStdout(), rows)
		},
	}
}

func watchCmd(a *app) *cobra.Command {
	var (
		source  string
		name    string
		runNow  bool
		noChats bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Fetch on a cron schedule and report a recommendation after each run",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tr, err := a.tracker()
			if err != nil {
				return err
			}
			if name == "" {
				name = a.cfg.Strategy.Default
			}

			var tn *notifier.TelegramNotifier
			if a.cfg.TelegramEnabled() {
				tn, _ = a.notifier()
			} else {
				log.Warn().Msg("telegram not configured, results are only logged")
			}

			sched := scheduler.NewScheduler(ctx, tr, tn, scheduler.Job{
				Mode:     collector.ParseMode(source),
				Strategy: name,
				Params:   strategy.Params{Window: a.cfg.Strategy.Window, ShortWindow: a.cfg.Strategy.ShortWindow},
			})
			if err := sched.Register(a.cfg.Schedule.FetchCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil && !noChats {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Info().Msg("telegram polling started")
			}
			if runNow {
				sched.RunNow()
			}

			log.Info().Str("cron", a.cfg.Schedule.FetchCron).Strs("sources", tr.Sources()).Msg("watching, press Ctrl+C to stop")
			<-ctx.Done()
			log.Info().Msg("shutdown signal received, stopping")
			return nil
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "auto", "source id, or auto for priority fallback")
	cmd.Flags().StringVar(&name, "strategy", "", "strategy evaluated after each fetch")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "run one fetch immediately")
	cmd.Flags().BoolVar(&noChats, "no-commands", false, "do not answer Telegram chat commands")
	return cmd
}

func (a *app) notifier() (*notifier.TelegramNotifier, error) {
	if !a.cfg.TelegramEnabled() {
		return nil, fmt.Errorf("telegram.bot_token and telegram.chat_id are required for notifications")
	}
	return notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy), nil
}
