package main

import (
	"os"

	"github.com/ariel-frischer/changelog-bot/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
