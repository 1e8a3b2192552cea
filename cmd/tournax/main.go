package main

import "github.com/mcoot/tournax/internal/cli"

func main() {
	cli.Execute()
}
