package main

import "github.com/yz4230/deployboard/cmd"

func main() {
	cmd.Execute()
}
