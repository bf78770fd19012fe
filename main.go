package main

import (
	"os"

	"github.com/FACorreiaa/devcamper-api/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
