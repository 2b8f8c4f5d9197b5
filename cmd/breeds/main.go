// Command breeds browses dog breeds and keeps a list of favorites. It is the
// example app for the appfac container: every command runs inside a screen
// flow resolved from either the live or the mock container.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "breeds: %v\n", err)
		os.Exit(1)
	}
}
