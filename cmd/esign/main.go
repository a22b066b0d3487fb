package main

import (
	"github.com/turtacn/esign/cmd/cli"
)

// main is the entry point for the esign command-line tool.
// It delegates all execution to the Execute function provided by the cli package.
// main 是 esign 命令行工具的入口点。
func main() {
	cli.Execute()
}
