// Package main is the entry point for the lolcustom CLI tool, which replays
// custom-game match records into skill ratings and balances teams from them.
package main

import "github.com/pable/lol-custom-rating/cmd"

func main() {
	cmd.Execute()
}
