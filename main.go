package main

import "github.com/iksnae/chat-convert/cmd"

func main() {
	cmd.Execute()
}
