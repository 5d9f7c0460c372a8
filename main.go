package main

import "github.com/jmehdipour/micromdm-webhook/cmd"

func main() {
	cmd.Execute()
}
