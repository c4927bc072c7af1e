package main

import "github.com/KaramelBytes/salesprep-cli/cmd"

func main() {
	cmd.Execute()
}
