package main

import "github.com/qrave1/anonspeak/cmd"

func main() {
	cmd.Execute()
}
