// Package main provides the bookwise command-line tool: offline queries
// against a catalog built in-process, and CSV imports into the SQLite store.
//
// Usage:
//
//	bookwise recommend "The Hobbit" --k 5 --data ./data
//	bookwise browse --source Kindle --sort rating
//	bookwise import --sqlite ./catalog.db --replace
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}
