package main

import "github.com/kartoza/gsh-benchmarker/cmd"

func main() {
	cmd.Execute()
}
