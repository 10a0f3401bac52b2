package main

import "github.com/OpenTraceLab/OpenTraceRegmap/cmd/regmap/cmd"

func main() {
	cmd.Execute()
}
