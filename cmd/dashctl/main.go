// Package main provides dashctl, a headless client for the bullion dashboard.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
