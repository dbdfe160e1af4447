package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"library-backend/config"
	"library-backend/library"
	log2 "library-backend/log"
)

// catalogRow is one line of the catalog: title,author,isbn,copies. isbn and
// copies may be empty; copies defaults to 1.
type catalogRow struct {
	line   int
	book   library.BookInput
	copies int
}

func main() {
	var file, envFile string
	cmd := &cobra.Command{
		Use:           "import_books",
		Short:         "Import a CSV catalog of books and copies",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if err := log2.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}
			db, err := cfg.OpenDatabase(cmd.Context())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			manager := library.NewManager(db)
			defer manager.Close()

			return importCatalog(cmd.Context(), manager, file, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&file, "file", "catalog.csv", "CSV file with title,author,isbn,copies rows")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func importCatalog(ctx context.Context, manager *library.LibraryManager, path string, out io.Writer) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := readCatalog(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	fmt.Fprintf(out, "Importing %d books from %s...\n", len(rows), path)
	successCount, errorCount := 0, 0
	for _, row := range rows {
		fmt.Fprintf(out, "Importing: %s by %s... ", row.book.Title, row.book.Author)
		book, copies, err := manager.CreateBookWithCopies(ctx, row.book, row.copies)
		if err != nil {
			fmt.Fprintf(out, "ERROR (line %d) - %v\n", row.line, err)
			errorCount++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %d, copies: %d)\n", book.ID, len(copies))
		successCount++
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d books\n", successCount)
	fmt.Fprintf(out, "Errors: %d\n", errorCount)
	return nil
}

// readCatalog parses the CSV in r. A first row starting with "title" is
// treated as a header.
func readCatalog(r io.Reader) ([]catalogRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []catalogRow
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "title") {
			continue
		}
		row, err := parseRow(line, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

func parseRow(line int, rec []string) (catalogRow, error) {
	if len(rec) < 2 || len(rec) > 4 {
		return catalogRow{}, fmt.Errorf("line %d: want 2 to 4 fields, got %d", line, len(rec))
	}
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	row := catalogRow{
		line:   line,
		book:   library.BookInput{Title: field(0), Author: field(1)},
		copies: 1,
	}
	if isbn := field(2); isbn != "" {
		row.book.ISBN = &isbn
	}
	if n := field(3); n != "" {
		copies, err := strconv.Atoi(n)
		if err != nil || copies < 0 {
			return catalogRow{}, fmt.Errorf("line %d: invalid copies %q", line, n)
		}
		row.copies = copies
	}
	return row, nil
}
