package main

import (
	"os"
)

func main() {
	err := rootCmd.Execute()
	closeApp()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
