package main

import "github.com/tizianocitro/blobquickstart/cmd/blobquickstart/commands"

func main() {
	commands.Execute()
}
