package main

import "github.com/madetoorder/storefront/cmd/storefront/commands"

func main() {
	commands.Execute()
}
