package main

import (
	"os"

	"go-healthcare-practice/cmd/bootstrap"
)

func main() {
	if err := bootstrap.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
