// Command migrate applies or inspects the embedded database migrations.
//
//	migrate [-dir .] up|down|status|version|redo|reset|up-to VERSION|down-to VERSION
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/kendall-kelly/tutoring-orders-api/config"
	"github.com/kendall-kelly/tutoring-orders-api/migrations"
	"github.com/pressly/goose/v3"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate COMMAND [ARGS]\n\ncommands: up, up-to VERSION, down, down-to VERSION, redo, reset, status, version\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func run(command string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.ConnectDatabase(cfg); err != nil {
		return err
	}
	sqlDB, err := config.GetDB().DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.RunContext(ctx, command, sqlDB, ".", args...)
}
