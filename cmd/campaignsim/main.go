package main

import (
	"campaign-forecast/internal/cli"
)

func main() {
	cli.Execute()
}
