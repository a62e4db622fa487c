package main

import "github.com/metacore/nftup/cmd"

func main() {
	cmd.Execute()
}
