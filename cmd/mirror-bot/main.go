// Package main is the entry point for the Mirror-Bot CLI.
package main

import (
	"github.com/similigh/mirror-bot/cmd/mirror-bot/commands"
)

func main() {
	commands.Execute()
}
