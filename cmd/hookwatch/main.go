package main

import "github.com/ppiankov/hookwatch/internal/cli"

func main() {
	cli.Execute()
}
