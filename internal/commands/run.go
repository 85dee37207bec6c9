package commands

import (
	"github.com/spf13/cobra"

	"PatternScout/internal/notifier"
	"PatternScout/internal/scheduler"
)

var runOnStart bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduled scanner and Telegram bot",
	Long: `Start the cron scheduler (schedule.scan_cron and schedule.rsi_cron) and
answer Telegram commands until interrupted. Requires telegram.bot_token and
telegram.chat_id.`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().BoolVar(&runOnStart, "now", false, "run a scan immediately on start (also RUN_ON_START=true)")
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.cfg.ValidateNotifier(); err != nil {
		return err
	}
	offset, err := a.cfg.TargetDayOffset()
	if err != nil {
		return err
	}

	tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.log)
	sched := scheduler.NewScheduler(ctx, a.collector, tn, a.recorder, scheduler.Settings{
		Symbols:         a.cfg.Symbols,
		Primary:         a.asset(""),
		TargetDayOffset: offset,
		MinOccurrences:  a.cfg.Analysis.MinOccurrences,
		TopK:            a.cfg.Analysis.TopK,
		Scan:            a.scanOptions(),
	}, a.log)
	if err := sched.RegisterAll(a.cfg.Schedule.ScanCron, a.cfg.Schedule.RSICron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	a.log.Info("telegram polling started")

	if runOnStart || envTrue("RUN_ON_START") {
		a.log.Info("running scan on start")
		go sched.RunScanNow()
	}

	a.log.Info("PatternScout is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	a.log.Info("shutdown signal received, stopping")
	return nil
}
