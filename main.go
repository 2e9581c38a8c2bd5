package main

import "github.com/jfmyers9/scrobbledash/cmd"

func main() {
	cmd.Execute()
}
