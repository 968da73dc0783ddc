package main

import (
	"os"

	"github.com/ppiankov/dyadt/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
