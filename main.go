package main

import (
	"os"

	"github.com/jlrodriguez/jobsift/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
