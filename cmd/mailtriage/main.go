package main

import "github.com/aaronromeo/mailtriage/internal/cli"

func main() {
	cli.Execute()
}
