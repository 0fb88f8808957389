// Command notifyctl sends notifications to the ingestion service from the
// command line and manages the bearer token stored in the OS keyring.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

const usage = `usage:
  notifyctl kinds
  notifyctl send -kind KIND -payload FILE|- [-token T] [-base-url URL] [-count N] [-rate R]
  notifyctl remind [-config FILE] ID
  notifyctl token set [-value T]
  notifyctl token delete
`

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	switch args[0] {
	case "kinds":
		return runKinds(stdout)
	case "send":
		return runSend(ctx, args[1:], stdin, stdout, stderr, envToken(openKeyring))
	case "remind":
		return runRemind(ctx, args[1:], stdout, stderr)
	case "token":
		return runToken(args[1:], stdin, stdout, stderr, openKeyring)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
}
