package main

import "github.com/ericlevine/cornerscan/cmd/cornerscan/cmd"

func main() {
	cmd.Execute()
}
