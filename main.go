package main

import (
	"log"

	"github.com/greenmove/evcharge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("evcharge: %v", err)
	}
}
