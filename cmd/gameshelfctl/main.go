package main

import "github.com/mcoot/gameshelf/internal/cli"

func main() {
	cli.Execute()
}
