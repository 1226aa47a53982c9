package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/respostas"
	"github.com/poiesic/respostas/access"
	"github.com/poiesic/respostas/config"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

// extraOptions are appended when opening the database. Tests use it to
// replace the embedder.
var extraOptions []respostas.DatabaseOption

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func openDatabase(c *cli.Context) (*respostas.Database, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	opts := append([]respostas.DatabaseOption{respostas.WithLogger(slog.Default())}, extraOptions...)
	db, err := respostas.Open(cfg, opts...)
	if errors.Is(err, access.ErrNoPassword) {
		return nil, fmt.Errorf("%w: set access.password_hash or %s (see the hash-password command)",
			err, config.EnvPasswordHash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// login opens the database and checks the team credential. The caller closes
// the database.
func login(c *cli.Context) (*respostas.Database, access.Session, error) {
	db, err := openDatabase(c)
	if err != nil {
		return nil, access.Session{}, err
	}

	user := c.String("user")
	if user == "" {
		user = db.Config().Access.User
	}
	password := c.String("password")
	if password == "" {
		password, err = readPassword(c, "Senha: ")
		if err != nil {
			db.Close()
			return nil, access.Session{}, err
		}
	}

	sess, err := db.Login(user, password)
	if err != nil {
		db.Close()
		return nil, sess, err
	}
	return db, sess, nil
}

// errStdinPassword is returned when --stdin would leave nothing for the
// password prompt to read.
var errStdinPassword = errors.New("--stdin consumes standard input: pass the password with --password or RESPOSTAS_LOGIN_PASSWORD")

// checkStdinPassword fails when the command reads its input from stdin and
// the password would also have to be prompted for.
func checkStdinPassword(c *cli.Context) error {
	if c.Bool("stdin") && c.String("password") == "" {
		return errStdinPassword
	}
	return nil
}

// readPassword reads a password without echo when stdin is a terminal.
func readPassword(c *cli.Context, prompt string) (string, error) {
	if f, ok := c.App.Reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.App.ErrWriter, prompt)
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.App.ErrWriter)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(password), nil
	}

	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readInput(c *cli.Context) (string, error) {
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to read standard input: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
