package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tradelens/internal/artifacts"
	"github.com/xkilldash9x/tradelens/internal/browser"
	"github.com/xkilldash9x/tradelens/internal/capture"
	"github.com/xkilldash9x/tradelens/internal/observability"
)

var captureCmd = &cobra.Command{
	Use:   "capture [url]",
	Short: "Run a full reconnaissance capture against a trading page.",
	Long: `Opens a headless browser session, records the network traffic generated
by the page, classifies the visible trading controls, extracts the color
palette, takes screenshots, and writes everything into a per-run output
directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCapture,
}

func init() {
	flags := captureCmd.Flags()
	flags.StringP("out", "o", "", "output directory")
	flags.Duration("settle", 0, "post-navigation settling delay")
	flags.Duration("timeout", 0, "navigation timeout")
	flags.Bool("headless", true, "run the browser headless")
	flags.Int("top-colors", 0, "palette size")

	// Flags override the config file and env through viper.
	cobra.CheckErr(viper.BindPFlag("capture.output_dir", flags.Lookup("out")))
	cobra.CheckErr(viper.BindPFlag("network.settle_delay", flags.Lookup("settle")))
	cobra.CheckErr(viper.BindPFlag("network.navigation_timeout", flags.Lookup("timeout")))
	cobra.CheckErr(viper.BindPFlag("browser.headless", flags.Lookup("headless")))
	cobra.CheckErr(viper.BindPFlag("capture.top_colors", flags.Lookup("top-colors")))

	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	targetURL := appCfg.Capture.TargetURL
	if len(args) > 0 {
		targetURL = args[0]
	}
	if targetURL == "" {
		return fmt.Errorf("no target URL: pass one as an argument or set capture.target_url")
	}

	runID := capture.NewRunID()
	store, err := artifacts.NewStore(appCfg.Capture.OutputDir, runID, logger)
	if err != nil {
		return err
	}

	mgr := browser.NewManager(cmd.Context(), appCfg.Browser, logger)
	defer mgr.Shutdown()

	orch := capture.NewWithBrowser(appCfg, logger, mgr)
	report, err := orch.Run(cmd.Context(), runID, targetURL, store)
	if err != nil {
		return err
	}

	logger.Info("capture complete",
		zap.String("run_id", report.RunID),
		zap.String("dir", store.Dir()))
	fmt.Fprintln(cmd.OutOrStdout(), store.Dir())
	return nil
}
