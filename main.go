package main

import "github.com/frahmantamala/digital-notary/cmd"

func main() {
	cmd.Execute()
}
