// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into a generic repository plus
// domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, reset
//	├── query.go         # Typed predicates and sort keys
//	├── repository.go    # Repository[T]: FindOne, FindMany, Save, Delete, Count
//	├── retry.go         # Backoff for SQLITE_BUSY
//	├── audit/           # Audit event storage
//	├── books/           # Catalog queries
//	├── loans/           # Loan queries and the overdue report
//	└── users/           # User lookups
//
// # Using Sub-packages
//
// Each sub-package embeds Repository[T] and adds the queries its domain needs.
// Repositories are cheap to build, so services create them per call from
// whatever handle they hold, which may be a transaction:
//
//	db, err := database.NewDatabase("./library.db")
//
//	err = db.DB.Transaction(func(tx *gorm.DB) error {
//		loan, err := loans.NewRepository(tx).FindActive(ctx, memberID, bookID)
//		...
//	})
//
// # Queries
//
// Filters are built from typed predicates rather than raw SQL fragments:
//
//	q := database.NewQuery(database.FoldEq("category", "teens")).
//		OrderBy("title", false)
//	books, err := books.NewRepository(db.DB).FindMany(ctx, q)
//
// Lookups that match nothing return ErrNotFound.
package database
