package main

import "github.com/bmacd/skyscore/internal/cmd"

func main() {
	cmd.Execute()
}
