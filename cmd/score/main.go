// Command score runs the scoring pipeline over a scan-context JSON file
// without standing up the HTTP service. It is the offline counterpart of
// POST /score, useful for replaying saved scans and tuning table overrides.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/localeintel/pulse/internal/scoring"
	"github.com/localeintel/pulse/internal/types"
)

var (
	Version = "dev"

	tablesPath string
	legacyOut  bool
	rawOut     bool
)

var rootCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a saved organization scan",
	Long: `score runs the localization purchase-intent pipeline over a scan-context
JSON file produced by the scanner and prints the scoring result. The same
engine backs the HTTP service; this command exists for replaying saved
scans and for tuning scoring-table overrides offline.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var runCmd = &cobra.Command{
	Use:   "run [scan.json]",
	Short: "Score one scan-context file (or stdin)",
	Long: `Score a scan-context JSON file and print the structured result as JSON.
Pass "-" or no argument to read the scan context from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Print the active scoring tables as YAML",
	Long: `Print the scoring tables the engine would use, after applying any
--tables override, in the same YAML shape the override file takes. Pipe
to a file to bootstrap an override.`,
	RunE: runTables,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("score version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tablesPath, "tables", "", "Path to a YAML scoring-tables override")

	runCmd.Flags().BoolVar(&legacyOut, "legacy", false, "Print the legacy three-field view instead of the structured result")
	runCmd.Flags().BoolVar(&rawOut, "raw", false, "Print the full unrounded result instead of the structured view")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(versionCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	data, err := readScan(args)
	if err != nil {
		return err
	}

	var scan types.ScanContext
	if err := json.Unmarshal(data, &scan); err != nil {
		return fmt.Errorf("failed to parse scan context: %w", err)
	}

	engine, err := buildEngine()
	if err != nil {
		return err
	}

	result := engine.Score(&scan)

	var out interface{}
	switch {
	case legacyOut:
		out = scoring.MapToLegacy(result)
	case rawOut:
		out = result
	default:
		out = result.Structured()
	}

	return printJSON(cmd.OutOrStdout(), out)
}

func runTables(cmd *cobra.Command, args []string) error {
	engine, err := buildEngine()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(engine.Tables())
	if err != nil {
		return fmt.Errorf("failed to encode tables: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func buildEngine() (*scoring.Engine, error) {
	if tablesPath == "" {
		return scoring.NewEngine(nil), nil
	}
	tables, err := scoring.LoadTables(tablesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring tables: %w", err)
	}
	return scoring.NewEngine(tables), nil
}

func readScan(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read scan context from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read scan context: %w", err)
	}
	return data, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	Execute()
}
