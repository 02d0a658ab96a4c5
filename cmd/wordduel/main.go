package main

import "github.com/mcoot/wordduel/internal/cli"

func main() {
	cli.Execute()
}
