package main

import (
	"os"

	"github.com/nilesh-r/jobsense/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
