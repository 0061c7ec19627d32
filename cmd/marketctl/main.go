package main

import "github.com/jafarshop/marketplace/cmd/marketctl/commands"

func main() {
	commands.Execute()
}
