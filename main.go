package main

import "github.com/mselser95/polyarb-agent/cmd"

func main() {
	cmd.Execute()
}
