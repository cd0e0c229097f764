package main

import "github.com/jittakal/ordersetl/cmd/ordersetl/commands"

func main() {
	commands.Execute()
}
