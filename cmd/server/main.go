package main

import (
	"context"
	"log"

	"github.com/ordermeow/ordermeow/internal/server"
	"github.com/ordermeow/ordermeow/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
