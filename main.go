package main

import (
	"os"

	"github.com/naterendon1/hostaway-autoreply-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
