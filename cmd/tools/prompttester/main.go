// Command prompttester prints the prompts sent to the completion provider and
// can run a reply or takeaway against the configured provider.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
