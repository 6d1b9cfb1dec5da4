package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/nyc-events/internal/scraper"
)

func newSourcesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the enabled sources and the pages scraped for each",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			sources, err := cfg.Sources()
			if err != nil {
				return err
			}
			adapters, err := scraper.Adapters(sources)
			if err != nil {
				return err
			}
			writeSources(cmd.OutOrStdout(), adapters)
			return nil
		},
	}
}

func writeSources(w io.Writer, adapters []scraper.Adapter) {
	for _, a := range adapters {
		fmt.Fprintf(w, "%s (weight %d)\n", a.Source(), a.Source().Weight())
		for _, u := range a.URLs() {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}
}
