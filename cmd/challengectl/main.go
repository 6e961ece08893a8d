package main

import (
	"alcyxob/wellbeing-app/internal/client"
	"log"
	"net/url"
	"os"
)

const defaultAPIURL = "http://localhost:8080/api/v1"

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "CHALLENGECTL : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	baseURL := os.Getenv("WELLBEING_API_URL")
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	_, err := url.ParseRequestURI(baseURL)
	errAndDie(err)

	var opts []client.Option
	if token := os.Getenv("WELLBEING_TOKEN"); token != "" {
		opts = append(opts, client.WithToken(token))
	}

	cli := commandLine{
		api: client.New(baseURL, opts...),
		out: os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
