package main

import "github.com/soundalike/soundalike/cmd"

func main() {
	cmd.Execute()
}
