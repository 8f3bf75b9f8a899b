// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"ssa/internal/dsl"
	"ssa/internal/pipeline"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: ssac <file.ssa>")
		os.Exit(1)
	}

	commonlog.Configure(1, nil)

	path := os.Args[1]
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read file: %s", err)
		os.Exit(1)
	}

	module, err := dsl.Parse(path, string(source))
	if err != nil {
		os.Exit(1)
	}

	result := pipeline.Run(module)

	fmt.Println(result.VCode.String())

	for _, w := range result.Warnings {
		color.Yellow("warning: %s", w)
	}

	color.Green("compiled %s", path)
}
