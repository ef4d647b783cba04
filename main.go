package main

import "techtrack.com/techtrack/cmd"

func main() {
	cmd.Execute()
}
