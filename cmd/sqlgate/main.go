// Package main provides the sqlgate CLI.
package main

import "github.com/tabular-ai/sqlgate/internal/cli"

func main() {
	cli.Execute()
}
