package main

import (
	"github.com/joho/godotenv"

	"github.com/dbsmedya/gopipeline/cmd/gopipeline/cmd"
)

func main() {
	// Load .env if present; real environment variables take precedence
	_ = godotenv.Load()

	cmd.Execute()
}
