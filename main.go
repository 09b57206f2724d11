package main

import "github.com/audiolibrelab/mictape/cmd"

func main() {
	cmd.Execute()
}
