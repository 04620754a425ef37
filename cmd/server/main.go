package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mjheves/account-service/internal/app"
	"github.com/mjheves/account-service/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init service: %v\n", err)
		os.Exit(1)
	}

	if err := a.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "run service: %v\n", err)
		os.Exit(1)
	}
}
