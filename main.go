package main

import "fleet-manager/cmd"

func main() {
	cmd.Execute()
}
