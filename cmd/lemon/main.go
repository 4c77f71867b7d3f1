// Command lemon manages Little Lemon table reservations.
package main

import "github.com/mesh-intelligence/littlelemon/internal/cli"

func main() {
	cli.Execute()
}
