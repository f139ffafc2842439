package main

import "github.com/CosmoTheDev/glwatch/cmd"

func main() {
	cmd.Execute()
}
