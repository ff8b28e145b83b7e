package main

import (
	"github.com/openclearing/epinflow/internal/cli"
)

func main() {
	cli.Execute()
}
