package main

import "github.com/skrasekmichael/teamup/cmd"

func main() {
	cmd.Execute()
}
