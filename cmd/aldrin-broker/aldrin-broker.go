package main

import "github.com/aldrin-bus/aldrin/cmd/aldrin-broker/commands"

func main() {
	commands.Execute()
}
