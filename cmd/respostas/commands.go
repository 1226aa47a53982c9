package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/poiesic/respostas/access"
	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/reembed"
	"github.com/poiesic/respostas/storage/csvfile"
	"github.com/urfave/cli/v2"
)

var errNoChanges = errors.New("no field flags given; nothing to change")

func addCommand(c *cli.Context) error {
	fields, _, err := applyFieldFlags(c, core.Fields{})
	if err != nil {
		return err
	}
	if err := checkStdinPassword(c); err != nil {
		return err
	}
	if c.Bool("stdin") {
		if fields.ReceivedText, err = readInput(c); err != nil {
			return err
		}
	}

	db, sess, err := login(c)
	if err != nil {
		return err
	}
	defer db.Close()

	entry, err := db.Records().AppendEntry(c.Context, sess, fields)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Registro do processo %s salvo com sucesso (posição %d).\n", entry.Record.ProcessID, entry.Position)
	return nil
}

func searchCommand(c *cli.Context) error {
	if err := checkStdinPassword(c); err != nil {
		return err
	}
	query := strings.Join(c.Args().Slice(), " ")
	if c.Bool("stdin") {
		var err error
		if query, err = readInput(c); err != nil {
			return err
		}
	}

	db, sess, err := login(c)
	if err != nil {
		return err
	}
	defer db.Close()

	k := c.Int("top-k")
	if k == 0 {
		k = db.Config().Search.TopK
	}

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}
	results, err := searcher.Search(c.Context, sess, query, k)
	switch {
	case errors.Is(err, core.ErrEmptyCorpus):
		return fmt.Errorf("the answer bank has no searchable records yet: %w", err)
	case errors.Is(err, core.ErrInvalidQuery):
		return fmt.Errorf("nothing to search for: %w", err)
	case err != nil:
		return fmt.Errorf("search failed: %w", err)
	}

	printResults(c.App.Writer, query, results)
	return nil
}

func listCommand(c *cli.Context) error {
	db, sess, err := login(c)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.Records().Filter(c.Context, sess, "")
	if err != nil {
		return err
	}
	printEntries(c.App.Writer, entries, c.Bool("full"))
	return nil
}

func filterCommand(c *cli.Context) error {
	term := strings.Join(c.Args().Slice(), " ")

	db, sess, err := login(c)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.Records().Filter(c.Context, sess, term)
	if err != nil {
		return err
	}
	printEntries(c.App.Writer, entries, c.Bool("full"))
	return nil
}

func showCommand(c *cli.Context) error {
	position, err := positionArg(c)
	if err != nil {
		return err
	}

	db, sess, err := login(c)
	if err != nil {
		return err
	}
	defer db.Close()

	record, err := db.Records().Get(c.Context, sess, position)
	if err != nil {
		return err
	}
	printRecord(c.App.Writer, position, record)
	return nil
}

func editCommand(c *cli.Context) error {
	position, err := positionArg(c)
	if err != nil {
		return err
	}

	db, sess, err := login(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := c.Context
	current, err := db.Records().Get(ctx, sess, position)
	if err != nil {
		return err
	}
	fields, changed, err := applyFieldFlags(c, current.Fields)
	if err != nil {
		return err
	}
	if !changed {
		return errNoChanges
	}

	updated, err := db.Records().Update(ctx, sess, position, fields)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Registro %d (processo %s) atualizado.\n", position, updated.ProcessID)
	return nil
}

func importCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("a CSV file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := csvfile.ReadRecords(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	db, sess, err := login(c)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.Records().Import(c.Context, sess, records)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "%d registros importados de %s.\n", n, path)
	return nil
}

func exportCommand(c *cli.Context) error {
	db, sess, err := login(c)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.Records().All(c.Context, sess)
	if err != nil {
		return err
	}

	path := c.Args().First()
	if path == "" || path == "-" {
		return csvfile.WriteRecords(c.App.Writer, records)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := csvfile.WriteRecords(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.ErrWriter, "%d registros exportados para %s.\n", len(records), path)
	return nil
}

func reembedCommand(c *cli.Context) error {
	// Create reembedding config
	reembedConfig := &reembed.Config{
		All:            c.Bool("all"),
		BatchSize:      c.Int("batch-size"),
		PoolSize:       c.Int("pool-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.PoolSize <= 0 {
		return fmt.Errorf("pool-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, sess, err := login(c)
	if err != nil {
		return err
	}
	defer db.Close()

	reembedder, err := db.NewReembedder(reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}
	defer reembedder.Release()

	cfg := db.Config()
	fmt.Fprintf(c.App.ErrWriter, "Storage: %s (%s)\n", cfg.Storage.Path, cfg.Storage.Backend)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := reembedder.Run(c.Context, sess); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func hashPasswordCommand(c *cli.Context) error {
	password := c.String("password")
	if password == "" {
		var err error
		if password, err = readPassword(c, "Nova senha: "); err != nil {
			return err
		}
	}
	hash, err := access.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, hash)
	return nil
}

func configCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}

// applyFieldFlags overlays the field flags that were set on base.
func applyFieldFlags(c *cli.Context, base core.Fields) (core.Fields, bool, error) {
	changed := false
	set := func(name string, target *string) {
		if c.IsSet(name) {
			*target = c.String(name)
			changed = true
		}
	}
	set("process", &base.ProcessID)
	set("number", &base.DocumentNumber)
	set("authorship", &base.Authorship)
	set("received", &base.ReceivedText)
	set("reply", &base.ReplyText)

	if c.IsSet("type") {
		dt, err := core.ParseDocumentType(c.String("type"))
		if err != nil {
			return base, false, err
		}
		base.DocumentType = dt
		changed = true
	}
	return base, changed, nil
}

func positionArg(c *cli.Context) (int, error) {
	arg := c.Args().First()
	if arg == "" {
		return 0, errors.New("a record position is required")
	}
	position, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q: %w", arg, err)
	}
	return position, nil
}
