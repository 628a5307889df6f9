package main

import "salaryman/internal/cli"

func main() {
	cli.Execute()
}
