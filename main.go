package main

import "nebles/almanac/cmd"

func main() {
	cmd.Execute()
}
