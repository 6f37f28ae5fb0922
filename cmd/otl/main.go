package main

import "github.com/OpenTraceLab/OpenTraceLVS/cmd/otl/cmd"

func main() {
	cmd.Execute()
}
