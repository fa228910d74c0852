package main

import "github.com/tanq16/symfetch/cmd"

func main() {
	cmd.Execute()
}
