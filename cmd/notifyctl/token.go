package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"pactnotify/internal/config"
	"pactnotify/internal/credential"
)

type storeOpener func() (*credential.Store, error)

func openKeyring() (*credential.Store, error) { return credential.Open() }

// envToken resolves the bearer token for send when -token is not given:
// NOTIFICATIONS_TOKEN first, then the keyring.
func envToken(open storeOpener) func() (string, error) {
	return func() (string, error) {
		if t := strings.TrimSpace(os.Getenv(config.EnvToken)); t != "" {
			return t, nil
		}
		store, err := open()
		if err != nil {
			return "", err
		}
		t, err := store.Token()
		if errors.Is(err, credential.ErrNotFound) {
			return "", fmt.Errorf("no token: pass -token, set %s or run 'notifyctl token set'", config.EnvToken)
		}
		return t, err
	}
}

func runToken(args []string, stdin io.Reader, stdout, stderr io.Writer, open storeOpener) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	store, err := open()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	switch args[0] {
	case "set":
		fs := flag.NewFlagSet("token set", flag.ContinueOnError)
		fs.SetOutput(stderr)
		value := fs.String("value", "", "token value (read from stdin when empty)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		tok := strings.TrimSpace(*value)
		if tok == "" {
			line, err := bufio.NewReader(stdin).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				fmt.Fprintln(stderr, "error:", err)
				return 1
			}
			tok = strings.TrimSpace(line)
		}
		if err := store.SetToken(tok); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		fmt.Fprintln(stdout, "token stored")
		return 0
	case "delete":
		if err := store.DeleteToken(); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		fmt.Fprintln(stdout, "token deleted")
		return 0
	default:
		fmt.Fprintf(stderr, "unknown token command %q\n", args[0])
		return 2
	}
}
