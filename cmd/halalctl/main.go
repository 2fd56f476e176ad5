/*
SPDX-License-Identifier: Apache-2.0
*/

// Command halalctl runs the halal supply chain ledger on a local SQLite
// world state: one-shot commands for every ledger operation and an HTTP
// gateway (serve).
package main

import (
	"os"
)

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
