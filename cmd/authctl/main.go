// Command authctl administers a memoauth store directly: it creates accounts
// and produces password hashes without going through the HTTP surface.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aussiebroadwan/memoauth/internal/auth/app"
	"github.com/aussiebroadwan/memoauth/internal/auth/service"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

const usage = `usage: authctl <command> [flags]

commands:
  create-account -email <email> [-role USER|ADMIN]   create an account, password read from stdin
  hash-password                                       print the argon2id hash of a password read from stdin
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "authctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "create-account":
		return createAccount(ctx, args[1:], stdin, stdout, stderr)
	case "hash-password":
		return hashPassword(stdin, stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func createAccount(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("create-account", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "account email")
	roleName := fs.String("role", string(jwtx.RoleUser), "account role (USER or ADMIN)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}
	role, err := jwtx.ParseRole(*roleName)
	if err != nil {
		return err
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	password, err := promptPassword(stdin, stderr)
	if err != nil {
		return err
	}

	hasher, err := app.NewHasher(cfg)
	if err != nil {
		return err
	}
	db, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	accounts := &service.AccountService{Store: db, Hasher: hasher, Timeout: cfg.StoreTimeout}
	acct, err := accounts.CreateAccount(ctx, *email, password, role)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "created %s %s (%s)\n", acct.ID, acct.Email, acct.Role)
	return nil
}

func hashPassword(stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	hasher, err := app.NewHasher(cfg)
	if err != nil {
		return err
	}

	password, err := promptPassword(stdin, stderr)
	if err != nil {
		return err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hash)
	return nil
}

// promptPassword reads without echo from a terminal, otherwise the first
// line of stdin.
func promptPassword(stdin io.Reader, prompt io.Writer) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}
