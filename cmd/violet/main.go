package main

import (
	"os"

	"github.com/idilsaglam/violet/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
