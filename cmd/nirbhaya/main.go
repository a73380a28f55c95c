// Nirbhaya - personal safety companion
package main

import "github.com/lcrostarosa/nirbhaya/internal/cli"

const version = "0.1.0"

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
