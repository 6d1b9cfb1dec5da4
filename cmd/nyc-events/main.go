package main

import "github.com/pfrederiksen/nyc-events/internal/cli"

func main() {
	cli.Execute()
}
