package main

import (
	"context"

	"github.com/nm2tech/classmate/storage/database"
)

// seed provisions the default accounts. Safe to run any number of times;
// migrations must have been applied first.
func (cli *commandLine) seed() error {
	return database.EnsureSeedData(context.Background(), cli.db)
}
