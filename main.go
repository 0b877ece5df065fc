package main

import "github.com/maastricht-university/speech-sentiment/cmd"

func main() {
	cmd.Execute()
}
