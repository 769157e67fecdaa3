package main

import "github.com/voicebridge/voicebridge/cmd"

func main() {
	cmd.Execute()
}
