package main

import "mixvault/cmd"

func main() {
	cmd.Execute()
}
