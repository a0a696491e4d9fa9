package main

import "github.com/scribelab/scribecapture/cmd"

func main() {
	cmd.Execute()
}
