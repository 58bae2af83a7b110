package main

import "github.com/circleous/repo-maker/cmd"

func main() {
	cmd.Execute()
}
