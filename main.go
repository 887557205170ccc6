package main

import "slide-talker/cmd"

func main() {
	cmd.Execute()
}
