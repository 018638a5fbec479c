package main

import (
	"context"
	"log"
	"os"

	"dagger.io/dagger"
)

func main() {
	ctx := context.Background()

	client, err := dagger.Connect(ctx, dagger.WithLogOutput(os.Stdout))
	if err != nil {
		log.Fatalf("test: error connecting to dagger: %v", err)
	}
	defer client.Close()

	// Mount the module at /src, leaving out the pipeline code itself
	source := client.Container().
		From("golang:1.19").
		WithDirectory(
			"/src",
			client.Host().Directory("."), dagger.ContainerWithDirectoryOpts{
				Exclude: []string{"ci/", "env/"},
			},
		).
		WithWorkdir("/src")

	// Unit tests run against the in-memory SQS server and never reach AWS
	out, err := source.WithExec([]string{"go", "test", "./..."}).Stdout(ctx)
	if err != nil {
		log.Fatalf("test: error running tests: %v", err)
	}
	log.Printf("test: finished running tests:\n%s", out)
}
