package cli

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/lending"
)

const (
	FormatTable = "table"
	FormatCSV   = "csv"
)

var reportHeader = []string{"id", "bookId", "bookTitle", "borrowerKind", "borrowerId", "borrowerName", "borrowedDate", "dueDate", "status"}

// OverdueReportCommand prints every loan that is currently overdue.
type OverdueReportCommand struct {
	Format       string
	DatabasePath string

	Out io.Writer
}

func NewOverdueReportCommand() *OverdueReportCommand {
	return &OverdueReportCommand{Format: FormatTable}
}

func (cmd *OverdueReportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("overdue-report", flag.ExitOnError)

	fs.StringVar(&cmd.Format, "format", FormatTable, "Output format: table or csv")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s overdue-report [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List loans past their due date.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Format != FormatTable && cmd.Format != FormatCSV {
		fs.Usage()
		return fmt.Errorf("unknown format %q", cmd.Format)
	}
	return nil
}

func (cmd *OverdueReportCommand) Run() error {
	s, err := openDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer s.close()

	service := lending.NewService(loans.NewStore(s.db.DB))
	status := entities.LoanStatusOverdue
	rows, err := service.List(context.Background(), lending.Query{Status: &status})
	if err != nil {
		return fmt.Errorf("list overdue loans: %w", err)
	}

	return writeReport(outOrStdout(cmd.Out), cmd.Format, rows)
}

func reportRecord(row lending.Row) []string {
	return []string{
		row.ID,
		strconv.FormatUint(uint64(row.BookID), 10),
		row.BookTitle,
		string(row.BorrowerKind),
		strconv.FormatUint(uint64(row.BorrowerID), 10),
		row.BorrowerName,
		row.BorrowedDate,
		row.DueDate,
		string(row.Status),
	}
}

func writeReport(w io.Writer, format string, rows []lending.Row) error {
	if format == FormatCSV {
		cw := csv.NewWriter(w)
		if err := cw.Write(reportHeader); err != nil {
			return err
		}
		for _, row := range rows {
			if err := cw.Write(reportRecord(row)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No overdue loans.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORD\tBOOK\tBORROWER\tBORROWED\tDUE")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s (%s)\t%s\t%s\n",
			row.ID, row.BookTitle, row.BorrowerName, row.BorrowerKind, row.BorrowedDate, row.DueDate)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d overdue loan(s)\n", len(rows))
	return err
}
