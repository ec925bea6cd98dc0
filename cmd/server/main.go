package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/blogposts/shared/config"
	"github.com/dfryer1193/blogposts/shared/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := logging.Setup(cfg.Logger); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logger")
	}

	command := "server"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "server":
		err = runServer(cfg)
	case "migrate":
		err = runMigrate(cfg)
	case "create-user":
		err = runCreateUser(cfg, os.Args[2:])
	case "issue-token":
		err = runIssueToken(cfg, os.Args[2:])
	case "help":
		showHelp()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Command failed")
	}
}

func showHelp() {
	fmt.Println("Blog posts service")
	fmt.Println("Usage: ./server [command] [args]")
	fmt.Println("\nAvailable commands:")
	fmt.Println("  server       Start the HTTP server (default)")
	fmt.Println("  migrate      Run database migrations")
	fmt.Println("  create-user  Create a user (args: <name> <email>)")
	fmt.Println("  issue-token  Print a bearer token for a user (args: <user id>)")
	fmt.Println("  help         Show this help message")
}
