// Command exprgraph records Lisp cost-function programs into expression
// graphs and checks them.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
