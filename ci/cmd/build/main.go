package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ecr"

	"dagger.io/dagger"

	"github.com/ceramicnetwork/go-sqs-flow"
	"github.com/ceramicnetwork/go-sqs-flow/common/aws/config"
)

const EcrUserName = "AWS"

const ImageName = "app-sqs-flow"

const (
	Env_EnvTag       = "ENV_TAG"
	Env_AwsAccountId = "AWS_ACCOUNT_ID"
)

func main() {
	ctx := context.Background()

	client, err := dagger.Connect(ctx, dagger.WithLogOutput(os.Stdout))
	if err != nil {
		log.Fatalf("build: error connecting to dagger: %v", err)
	}
	defer client.Close()

	registry := os.Getenv(Env_AwsAccountId) + ".dkr.ecr." + os.Getenv(sqsflow.Env_AwsRegion) + ".amazonaws.com"
	envTag := os.Getenv(Env_EnvTag)
	container := client.Host().Directory(".").
		DockerBuild(dagger.DirectoryDockerBuildOpts{
			Platform:  "linux/amd64",
			BuildArgs: []dagger.BuildArg{{Name: Env_EnvTag, Value: envTag}},
		})
	var tags []string
	for _, tag := range []string{envTag, os.Getenv("BRANCH"), os.Getenv("SHA")} {
		if len(tag) > 0 {
			tags = append(tags, tag)
		}
	}
	// Only production images get the "latest" tag
	if envTag == sqsflow.EnvTag_Prod {
		tags = append(tags, "latest")
	}
	ecrToken, err := getEcrToken(ctx)
	if err != nil {
		log.Fatalf("build: error retrieving ecr auth token: %v", err)
	}
	if err = pushImage(ctx, client, container, registry, ecrToken, tags); err != nil {
		log.Fatalf("build: failed to push image: %v", err)
	}
}

func pushImage(ctx context.Context, client *dagger.Client, container *dagger.Container, registry, ecrToken string, tags []string) error {
	container = container.WithRegistryAuth(registry, EcrUserName, client.SetSecret("EcrAuthToken", ecrToken))
	for _, tag := range tags {
		if ref, err := container.Publish(ctx, fmt.Sprintf("%s/%s:%s", registry, ImageName, tag)); err != nil {
			return err
		} else {
			log.Printf("build: published %s", ref)
		}
	}
	return nil
}

func getEcrToken(ctx context.Context) (string, error) {
	awsCfg, err := config.AwsConfig(ctx)
	if err != nil {
		return "", err
	}
	ecrClient := ecr.NewFromConfig(awsCfg)
	if ecrTokenOut, err := ecrClient.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{}); err != nil {
		return "", err
	} else if len(ecrTokenOut.AuthorizationData) == 0 {
		return "", fmt.Errorf("no authorization data returned")
	} else if authToken, err := base64.StdEncoding.DecodeString(*ecrTokenOut.AuthorizationData[0].AuthorizationToken); err != nil {
		return "", err
	} else {
		return strings.TrimPrefix(string(authToken), EcrUserName+":"), nil
	}
}
