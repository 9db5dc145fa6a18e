package main

import "teleop/internal/cli"

func main() {
	cli.Execute()
}
