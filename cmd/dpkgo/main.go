// Package main provides the dpkgo command-line package management tool.
package main

import (
	"github.com/dpkgo/dpkgo/cmd/dpkgo/command"
)

func main() {
	command.Execute()
}
