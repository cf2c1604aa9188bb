package main

import "github.com/Yates-Labs/spoke/cmd"

func main() {
	cmd.Execute()
}
