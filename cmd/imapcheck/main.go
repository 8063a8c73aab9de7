// Command imapcheck fetches recent threads from an IMAP mailbox and
// prints them, for debugging source connectivity outside the server.
//
// Usage:
//
//	IMAP_HOST=imap.example.com IMAP_USER=me@example.com IMAP_PASSWORD=... go run ./cmd/imapcheck
package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/dayspark/core/internal/sources"
)

func main() {
	host := os.Getenv("IMAP_HOST")
	user := os.Getenv("IMAP_USER")
	password := os.Getenv("IMAP_PASSWORD")
	if host == "" || user == "" || password == "" {
		log.Fatal("IMAP_HOST, IMAP_USER and IMAP_PASSWORD must be set")
	}

	port := 993
	if p := os.Getenv("IMAP_PORT"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			log.Fatalf("Invalid IMAP_PORT: %v", err)
		}
		port = n
	}

	hours := 24
	if h := os.Getenv("IMAP_HOURS_BACK"); h != "" {
		n, err := strconv.Atoi(h)
		if err != nil {
			log.Fatalf("Invalid IMAP_HOURS_BACK: %v", err)
		}
		hours = n
	}

	src := sources.NewIMAPSource(sources.IMAPConfig{
		Host:     host,
		Port:     port,
		Username: user,
		Password: password,
		UseSSL:   os.Getenv("IMAP_NO_SSL") == "",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log.Printf("Fetching threads from %s (last %d hours)...", host, hours)
	threads, err := src.FetchThreads(ctx, hours)
	if err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}

	log.Printf("Fetched %d threads", len(threads))
	for _, t := range threads {
		log.Printf("  [%s] %s  from=%s unread=%v", t.Date, t.Subject, t.From, t.Unread)
	}
}
