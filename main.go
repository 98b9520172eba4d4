package main

import "github.com/fakeyudi/gitwork/cmd"

func main() {
	cmd.Execute()
}
