package main

import "github.com/oshokin/volume-knob/cmd/volume-knob/cmd"

func main() {
	cmd.Execute()
}
