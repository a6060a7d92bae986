package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/xela07ax/mandate-infra-prototype/internal/infra"
	"github.com/xela07ax/mandate-infra-prototype/internal/sentiment"
)

const usage = `usage: azumi run <message>

Отправляет текст в emotion-сервис и печатает вердикт.
Адрес сервиса берется из конфигурации (sentiment.url / SENTIMENT_URL).`

func main() {
	if len(os.Args) < 3 || os.Args[1] != "run" {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	message := os.Args[2]

	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client := sentiment.NewReliabilityWrapper(sentiment.NewClient(cfg.Sentiment), cfg.Sentiment)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	verdict, err := client.Analyze(ctx, message)
	if err != nil {
		log.Fatalf("Sentiment call failed: %v", err)
	}

	fmt.Printf("feeling:     %s\n", verdict.Feeling)
	fmt.Printf("temperature: %.2f\n", verdict.Temperature)
	fmt.Printf("text:        %s\n", verdict.Text)
}
