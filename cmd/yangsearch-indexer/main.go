package main

import "github.com/platinummonkey/yangsearch/pkg/cli"

func main() {
	cli.Execute()
}
