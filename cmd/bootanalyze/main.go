package main

import (
	"github.com/NVIDIA/bootanalyze/pkg/cli"
)

func main() {
	cli.Execute()
}
