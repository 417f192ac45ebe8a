package main

import "github.com/emiliopalmerini/agentpulse/internal/cli"

func main() {
	cli.Execute()
}
