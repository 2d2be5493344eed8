package main

import (
	"github.com/spf13/cobra"

	"coindash/internal/news"
	"coindash/internal/report"
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Scrape the latest headlines and tally their sentiment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		scraper := news.NewScraper(a.cfg.NewsURL, a.cfg.NewsFeedURL, a.cfg.HTTPTimeout, a.log)
		dg, err := news.NewService(scraper, nil, a.log).Latest(cmd.Context())
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return printJSON(nil, dg)
		}
		return printText(nil, "", report.News(dg))
	},
}

func init() {
	newsCmd.Flags().StringVar(&outputFormat, "format", "text", "Output format (text|json)")
	rootCmd.AddCommand(newsCmd)
}
