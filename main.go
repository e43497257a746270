package main

import "github.com/akashicode/solvesafe/cmd"

func main() {
	cmd.Execute()
}
