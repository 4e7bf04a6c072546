package main

import "promptcraft/internal/cli"

func main() {
	cli.Execute()
}
