package main

import "github.com/dbsmedya/gofactory/cmd/gofactory/cmd"

func main() {
	cmd.Execute()
}
