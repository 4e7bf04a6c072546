package main

import (
	"context"
	"fmt"
	"os"

	"promptcraft/internal/cli"
)

// @title Promptcraft API
// @version 1.0
// @description Guided questionnaire that turns seven answers into a finished AI prompt.
// @host localhost:8080
// @BasePath /v1
func main() {
	if err := cli.Serve(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
