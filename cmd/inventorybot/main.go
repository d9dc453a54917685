package main

import "github.com/vietddude/inventorybot/internal/cli"

func main() {
	cli.Execute()
}
