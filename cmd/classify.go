package cmd

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/tradelens/internal/classifier"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file.html>",
	Short: "Classify the trading controls in a saved HTML document.",
	Long: `Runs the element classifier against static markup, without launching a
browser. Colors and geometry are only available where the document declares
them inline, so the result is a structural preview rather than a full
capture. The classification is printed to stdout as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close()

	snap, err := classifier.SnapshotFromHTML(f)
	if err != nil {
		return err
	}

	result := classifier.Classify(snap, appCfg.Capture.TopColors)
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding classification: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
