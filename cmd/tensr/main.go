package main

import (
	"github.com/Kakaur/tensr-signal-agent/internal/cli"
)

func main() {
	cli.Execute()
}
