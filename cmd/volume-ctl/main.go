package main

import "github.com/oshokin/volume-knob/cmd/volume-ctl/cmd"

func main() {
	cmd.Execute()
}
