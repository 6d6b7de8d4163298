// Command provision creates portal users directly in the record store.
//
//	provision -email a@x.com -name "Full Name" [-password]
//
// Without -password the user is created bootstrap-pending and sets a
// password on first login. Store settings come from the server config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/ecoportal/internal/flagx"
	"github.com/dmitrijs2005/ecoportal/internal/logging"
	"github.com/dmitrijs2005/ecoportal/internal/server"
	"github.com/dmitrijs2005/ecoportal/internal/server/auth"
	"github.com/dmitrijs2005/ecoportal/internal/server/config"
	"github.com/dmitrijs2005/ecoportal/internal/server/repositories/users"
	"github.com/dmitrijs2005/ecoportal/internal/server/services"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type options struct {
	email       string
	name        string
	setPassword bool
}

func parseOptions(args []string) (options, error) {
	var o options
	args = flagx.FilterArgs(args, []string{"-email", "-name", "-password"})

	fs := flag.NewFlagSet("provision", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.email, "email", "", "user email")
	fs.StringVar(&o.name, "name", "", "full name")
	fs.BoolVar(&o.setPassword, "password", false, "prompt for an initial password")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.email == "" {
		return o, errors.New("-email is required")
	}
	return o, nil
}

// promptPassword asks twice without echo and requires both entries to match.
func promptPassword(out io.Writer, fd int) (string, error) {
	fmt.Fprint(out, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}

	fmt.Fprint(out, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func main() {
	ctx := context.Background()

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := config.LoadConfig()

	var password string
	if opts.setPassword {
		if password, err = promptPassword(os.Stderr, int(os.Stdin.Fd())); err != nil {
			log.Fatalf("%v", err)
		}
	}

	store, closeStore, err := server.OpenRecordStore(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = closeStore() }()

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	repo := users.NewRecordsRepository(store, cfg.AirtableUsersTable, auth.DefaultPolicy, nil)
	svc := services.NewAuthService(repo, auth.NewIssuer([]byte(cfg.SessionSecret), 0, nil),
		auth.NewHasher(cfg.BcryptCost), auth.DefaultPolicy, logger, nil)

	u, err := svc.Provision(ctx, opts.email, opts.name, password)
	if err != nil {
		_ = closeStore()
		log.Fatalf("provision %s: %v", opts.email, err)
	}

	fmt.Printf("created %s (id %d, password pending: %t)\n", u.Email, u.ID, u.NeedsPassword())
}
