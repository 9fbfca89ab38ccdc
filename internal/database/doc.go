// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, active-loan indexes
//	├── books/           # Catalog CRUD
//	├── borrowers/       # Students and teachers
//	├── loans/           # Borrow records, implements lending.Store
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./library.db", database.DefaultOptions())
//
//	catalog := books.NewRepository(db.DB)
//	directory := borrowers.NewRepository(db.DB)
//	store := loans.NewStore(db.DB)
//	service := lending.NewService(store)
//
// # Transactions
//
// Connections are opened with _txlock=immediate, so every gorm transaction
// takes the SQLite write lock at BEGIN. Code that reads and then writes the
// same rows must do both inside one db.Transaction call.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add the entity to Database.Migrate
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
