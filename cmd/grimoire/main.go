package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/aussiebroadwan/grimoire/internal/auth/app"
	"github.com/aussiebroadwan/grimoire/pkg/cryptox"
)

func main() {
	genSecret := flag.Bool("gen-secret", false, "print a random secret suitable for JWT_SECRET or JWT_REFRESH_SECRET and exit")
	flag.Parse()

	if *genSecret {
		fmt.Println(cryptox.MustGenerateToken(cryptox.TokenSize256))
		return
	}

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
