package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fitstudio/internal/infra"
	"fitstudio/internal/infra/credentials"
)

func main() {
	var (
		keyFlag   string
		dsnFlag   string
		printFlag bool
	)
	flag.StringVar(&keyFlag, "key", "", "Gemini API key to store (falls back to GEMINI_API_KEY)")
	flag.StringVar(&dsnFlag, "dsn", "", "Postgres DSN (falls back to DATABASE_URL)")
	flag.BoolVar(&printFlag, "print", false, "Print the currently stored key instead of writing one")
	flag.Parse()

	dbURL := strings.TrimSpace(dsnFlag)
	if dbURL == "" {
		dbURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "database DSN is required via -dsn or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", "warn").With().Str("cmd", "geminikey").Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	ctxExec, cancelExec := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelExec()

	if printFlag {
		key, err := store.GeminiAPIKey(ctxExec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read gemini api key: %v\n", err)
			os.Exit(1)
		}
		if key == "" {
			fmt.Println("no gemini API key stored")
			return
		}
		fmt.Printf("gemini API key: %s\n", maskKey(key))
		return
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if key == "" {
		fmt.Fprintln(os.Stderr, "gemini API key is required via -key or GEMINI_API_KEY")
		os.Exit(1)
	}

	if err := store.SetGeminiAPIKey(ctxExec, key); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist gemini api key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("gemini API key stored successfully")
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
