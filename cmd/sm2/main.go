// Command sm2 generates SM2 keys and signs and verifies messages from the
// command line.
package main

import (
	"fmt"
	"os"
)

func main() {
	root, err := newRootCmd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// Cobra prints the usage and error string itself.
	if root.Execute() != nil {
		os.Exit(1)
	}
}
