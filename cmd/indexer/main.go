package main

import (
	"log"

	"OrderPayments/config"
	"OrderPayments/internal/indexer"
)

func main() {
	cfg, err := config.NewIndexer()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}
	if err := indexer.Run(cfg); err != nil {
		log.Fatalf("Indexer error: %s", err)
	}
}
