// streamctl - terminal client for the IWE streaming socket
package main

import (
	"fmt"
	"os"

	"github.com/ashureev/iwe-console/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
