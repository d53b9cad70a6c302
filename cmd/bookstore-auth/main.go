// Command bookstore-auth verifies bearer tokens issued by the bookstore
// Keycloak realm. It serves the token-protected bookstore endpoints and
// offers offline key and token inspection.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
