// Command seedadmin creates an administrator account, or promotes an
// existing user to Admin. It reads the same configuration sources as the
// server (.env, ORDERMEOW_* variables, -c file, flags).
//
//	seedadmin -user root            # prompts for the password
//	seedadmin -user root -password s3cret
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"github.com/ordermeow/ordermeow/internal/dbx"
	"github.com/ordermeow/ordermeow/internal/flagx"
	"github.com/ordermeow/ordermeow/internal/logging"
	"github.com/ordermeow/ordermeow/internal/server/auth"
	"github.com/ordermeow/ordermeow/internal/server/config"
	"github.com/ordermeow/ordermeow/internal/server/repositories/repomanager"
	"github.com/ordermeow/ordermeow/internal/server/services"
)

func main() {
	var userName, password string

	fs := flag.NewFlagSet("seedadmin", flag.ExitOnError)
	fs.StringVar(&userName, "user", "admin", "admin user name")
	fs.StringVar(&password, "password", "", "admin password; prompted for when empty")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-user", "-password"}))

	if password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print("Enter password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			log.Fatalf("reading password: %v", err)
		}
		password = string(pw)
	}

	if err := run(context.Background(), userName, password); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, userName, password string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret:    []byte(cfg.SecretKey),
		Issuer:    cfg.Issuer,
		Audience:  cfg.Audience,
		AccessTTL: cfg.AccessTokenValidityDuration,
	})
	if err != nil {
		return err
	}

	svc := services.NewAuthService(services.AuthDeps{
		DB:      db,
		Tx:      dbx.NewReadCommittedTxRunner(db),
		Repos:   rm,
		Codec:   codec,
		Refresh: auth.NewRefreshGenerator(cfg.RefreshTokenValidityDuration),
		Hasher:  auth.NewBcryptHasher(cfg.BcryptCost),
		Logger:  logger,
	})

	created, err := svc.EnsureAdmin(ctx, userName, password)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("created admin %q\n", userName)
	} else {
		fmt.Printf("%q is an admin\n", userName)
	}
	return nil
}
