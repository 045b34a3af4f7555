// Package main is the entry point for the hoopmetrics CLI tool, which
// turns tracked-object frame streams from basketball video into game
// events and player statistics.
package main

import "github.com/Benoitbolivard/Project-basket/cmd"

func main() {
	cmd.Execute()
}
