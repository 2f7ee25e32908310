// Command sessionctl drives a goSession manager from the terminal: inspect the cached
// session, sign in or out, and watch state changes.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
