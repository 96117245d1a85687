package main

import "github.com/flightdeck-cd/flightdeck/cmd/root"

func main() {
	root.Execute()
}
