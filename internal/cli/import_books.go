package cli

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
)

// catalogFile is the YAML layout accepted by import-books:
//
//	books:
//	  - title: Dune
//	    author: Frank Herbert
//	    year: 1965
type catalogFile struct {
	Books []catalogEntry `yaml:"books"`
}

type catalogEntry struct {
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	Year     int    `yaml:"year"`
	Genre    string `yaml:"genre"`
	Language string `yaml:"language"`
	ImageRef string `yaml:"imageRef"`
}

// ImportBooksCommand seeds the catalog from a YAML file. All books are
// inserted in one transaction; one bad entry rejects the whole file.
type ImportBooksCommand struct {
	File         string
	DatabasePath string
	DryRun       bool

	Out io.Writer
}

func NewImportBooksCommand() *ImportBooksCommand {
	return &ImportBooksCommand{}
}

func (cmd *ImportBooksCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-books", flag.ExitOnError)

	fs.StringVar(&cmd.File, "file", "", "YAML file listing the books (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Validate the file without writing to the database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-books -file books.yaml [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Add books to the catalog from a YAML file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.File == "" {
		fs.Usage()
		return fmt.Errorf("file is required")
	}
	return nil
}

func (cmd *ImportBooksCommand) Run() error {
	data, err := os.ReadFile(cmd.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", cmd.File, err)
	}
	list, err := parseCatalog(data)
	if err != nil {
		return err
	}

	out := outOrStdout(cmd.Out)
	if cmd.DryRun {
		fmt.Fprintf(out, "%d book(s) valid, nothing written\n", len(list))
		return nil
	}

	s, err := openDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer s.close()

	err = books.NewRepository(s.db.DB).CreateBooks(context.Background(), list)
	s.audit.LogCatalog(cliOrigin(""), "import", 0, fmt.Sprintf("%d books from %s", len(list), cmd.File), err)
	if err != nil {
		return fmt.Errorf("import books: %w", err)
	}

	fmt.Fprintf(out, "Imported %d book(s)\n", len(list))
	return nil
}

// parseCatalog decodes and validates a catalog file. Unknown keys are errors
// so a typo does not silently drop a field.
func parseCatalog(data []byte) ([]entities.Book, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("catalog file is empty")
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Books) == 0 {
		return nil, fmt.Errorf("catalog lists no books")
	}

	list := make([]entities.Book, 0, len(file.Books))
	for i, entry := range file.Books {
		title := strings.TrimSpace(entry.Title)
		author := strings.TrimSpace(entry.Author)
		if title == "" || author == "" {
			return nil, fmt.Errorf("book %d: title and author are required", i+1)
		}
		if entry.Year < 0 {
			return nil, fmt.Errorf("book %d (%q): year must not be negative", i+1, title)
		}
		list = append(list, entities.Book{
			Title:    title,
			Author:   author,
			Year:     entry.Year,
			Genre:    strings.TrimSpace(entry.Genre),
			Language: strings.TrimSpace(entry.Language),
			ImageRef: strings.TrimSpace(entry.ImageRef),
		})
	}
	return list, nil
}
