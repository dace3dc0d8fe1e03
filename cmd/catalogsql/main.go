// Package main provides the catalogsql command.
package main

import (
	"os"

	"github.com/leapstack-labs/catalogsql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
