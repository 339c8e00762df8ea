// Command nocojs is a thin CLI front-end over the Transform/GetPlaceholder
// entry points, in the teacher's cobra-CLI style (cmd/warren/main.go):
// a root command plus small leaf subcommands, each reading its own
// flags and printing a short status report.
//
// Flag parsing and output formatting are deliberately minimal per
// spec.md §1's "CLI flag parsing" non-goal — this binary exists to
// exercise the library from a terminal, not to be the product.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akzhy/nocojs"
	"github.com/akzhy/nocojs/internal/cachedb"
	"github.com/akzhy/nocojs/internal/logx"
	"github.com/akzhy/nocojs/internal/options"
	"github.com/akzhy/nocojs/internal/store"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nocojs",
	Short: "Inline image placeholders for preview() call sites",
}

var transformCmd = &cobra.Command{
	Use:   "transform FILE",
	Short: "Transform a single source file and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		code, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		publicDir, _ := cmd.Flags().GetString("public-dir")
		cacheDir, _ := cmd.Flags().GetString("cache-dir")
		verbose, _ := cmd.Flags().GetBool("verbose")
		var logLevel *logx.Level
		if verbose {
			l := logx.LevelVerbose
			logLevel = &l
		}

		out, err := nocojs.Transform(string(code), path, nocojs.TransformOptions{
			Cache:        true,
			PublicDir:    publicDir,
			CacheFileDir: cacheDir,
			LogLevel:     logLevel,
		})
		if err != nil {
			return fmt.Errorf("transform failed: %w", err)
		}
		if out == nil {
			fmt.Print(string(code))
			return nil
		}
		for _, l := range out.Logs {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", l.Level, l.Message)
		}
		fmt.Print(out.Code)
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview URL",
	Short: "Render a single URL's placeholder without touching a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]
		publicDir, _ := cmd.Flags().GetString("public-dir")
		cacheDir, _ := cmd.Flags().GetString("cache-dir")
		kind, _ := cmd.Flags().GetString("type")

		out := nocojs.GetPlaceholder(url, nocojs.GetPlaceholderOptions{
			PlaceholderType: options.ParseOutputKind(kind),
			Cache:           true,
			PublicDir:       publicDir,
			CacheFileDir:    cacheDir,
		})
		for _, l := range out.Logs {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", l.Level, l.Message)
		}
		if out.IsError {
			return fmt.Errorf("failed to render placeholder for %s", url)
		}
		fmt.Println(out.Placeholder)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report the size of the persistent placeholder cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		cacheDir, _ := cmd.Flags().GetString("cache-dir")
		db, err := cachedb.Open(cacheDir)
		if err != nil {
			return fmt.Errorf("failed to open cache at %s: %w", cacheDir, err)
		}
		defer db.Close()

		rows, err := db.SelectAll()
		if err != nil {
			return fmt.Errorf("failed to read cache: %w", err)
		}
		st := store.New()
		st.LoadFrom(rows)
		fmt.Println(st.Report())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(statsCmd)

	for _, cmd := range []*cobra.Command{transformCmd, previewCmd, statsCmd} {
		cmd.Flags().String("cache-dir", nocojs.DefaultCacheFileDir, "Persistent cache directory")
	}
	transformCmd.Flags().String("public-dir", "", "Root directory for local asset paths")
	transformCmd.Flags().Bool("verbose", false, "Enable verbose logging")
	previewCmd.Flags().String("public-dir", "public", "Root directory for local asset paths")
	previewCmd.Flags().String("type", "normal", "Output kind: normal, blurred, grayscale, dominant-color, average-color, transparent")
}
