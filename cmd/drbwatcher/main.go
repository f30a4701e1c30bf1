package main

import (
	"drb-balance-bot/internal/cli"
)

func main() {
	cli.Execute()
}
