package main

import "github.com/lambdaily/dreambooth/cmd"

func main() {
	cmd.Execute()
}
