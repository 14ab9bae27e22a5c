package main

import "github.com/example/roomly/cmd"

func main() {
	cmd.Execute()
}
