package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/database"
	auditdb "github.com/mrlokans/library/internal/database/audit"
)

// session is an open database plus the audit service writing into it. close
// flushes pending audit events before closing the database.
type session struct {
	db    *database.Database
	audit *audit.Service
}

// openDatabase opens an existing library database. Commands never create one:
// a missing file almost always means a wrong -db flag.
func openDatabase(path string) (*session, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("database file does not exist: %s", path)
	}

	db, err := database.NewDatabase(path, database.Options{LogLevel: logger.Silent})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return &session{
		db:    db,
		audit: audit.NewService(auditdb.NewRepository(db.DB)),
	}, nil
}

func (s *session) close() {
	s.audit.Wait()
	if err := s.db.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}

// cliOrigin attributes CLI-triggered changes in the audit log.
func cliOrigin(actor string) audit.Origin {
	if actor == "" {
		actor = "cli"
	}
	return audit.Origin{Actor: actor}
}

func outOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
