package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/alexflint/go-arg"
)

func main() {
	var args struct {
		Status      string `arg:"-s,--status,required" help:"commit status: pending, success, failure or error"`
		Context     string `arg:"-c,--context" default:"ci/sqs-flow" help:"status context"`
		RunUrl      string `arg:"env:RUN_URL" help:"GitHub workflow run URL"`
		StatusUrl   string `arg:"env:STATUS_URL,required" help:"GitHub commit status URL"`
		GitHubToken string `arg:"env:GH_TOKEN" help:"GitHub auth token"`
	}
	arg.MustParse(&args)
	if err := updateCommitStatus(args.Status, args.Context, args.StatusUrl, args.RunUrl, args.GitHubToken); err != nil {
		log.Fatalf("status: error publishing status: %v", err)
	}
}

func updateCommitStatus(status, statusContext, statusUrl, targetUrl, token string) error {
	reqBody, err := json.Marshal(map[string]string{
		"state":      status,
		"context":    statusContext,
		"target_url": targetUrl,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, statusUrl, bytes.NewBuffer(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if len(token) > 0 {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if respBody := string(body); resp.StatusCode != http.StatusCreated || !strings.Contains(respBody, status) {
		return fmt.Errorf("unexpected response %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
