// Package cli implements the nyc-events command line.
//
// The root command performs one run: scrape the listing sites, drop events
// that clash with the configured calendar, rank the rest and deliver the
// digest. The schedule subcommand repeats that run on a cron expression and
// the sources subcommand lists what would be scraped.
package cli
