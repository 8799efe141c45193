// Command detect prints the forms found in an HTML page.
//
// Usage:
//
//	detect --url https://example.com/contact
//	detect --file page.html
//	curl -s https://example.com | detect
//
// Output is {"data": [...]} as indented JSON on stdout.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/leadform/internal/infrastructure/config"
	"github.com/GriffinCanCode/leadform/internal/infrastructure/logging"
	"github.com/GriffinCanCode/leadform/internal/providers/fetch"
	"github.com/GriffinCanCode/leadform/internal/providers/scraper"
)

type options struct {
	url     string
	file    string
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Print the forms found in an HTML page",
		Long: `detect extracts every <form> from a page and prints the fields a lead
capture snippet would submit. The page comes from --url, --file, or stdin.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.url, "url", "u", "", "Page URL to fetch")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "HTML file to read")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log fetch activity to stderr")
	cmd.MarkFlagsMutuallyExclusive("url", "file")
	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	html, err := readInput(cmd, cfg, opts)
	if err != nil {
		return err
	}

	extractor := scraper.NewExtractor(scraper.Limits{
		MaxHTMLSize: cfg.Detection.MaxHTMLSize,
		MaxDepth:    cfg.Detection.MaxDepth,
	})
	forms, err := extractor.Extract(html)
	if err != nil {
		return err
	}

	out, err := sonic.ConfigStd.MarshalIndent(map[string]any{"data": forms}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func readInput(cmd *cobra.Command, cfg *config.Config, opts options) (string, error) {
	switch {
	case opts.url != "":
		log := logging.NewNop()
		if opts.verbose {
			l, err := logging.New(logging.Config{Level: "debug", Development: true, OutputPaths: []string{"stderr"}})
			if err != nil {
				return "", err
			}
			log = l
		}
		return fetch.New(cfg.Fetch, fetch.WithLogger(log.Logger)).FetchHTML(cmd.Context(), opts.url)
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
