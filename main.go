package main

import "booksly/cmd"

func main() {
	cmd.Execute()
}
