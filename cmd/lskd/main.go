package main

import "github.com/LeJamon/goLSKd/internal/cli"

func main() {
	cli.Execute()
}
