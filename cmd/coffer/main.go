// Command coffer is a local folder-encryption vault engine: add a
// folder as a vault, lock it (encrypt in place), and unlock it
// (decrypt in place) with a password or biometrics.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
