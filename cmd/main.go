package main

import (
	"github.com/devflow-sh/devflow/internal/interfaces/cli"
)

func main() {
	cli.Execute()
}
