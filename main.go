package main

import "github.com/jackchuka/allerscan/cmd"

func main() {
	cmd.Execute()
}
