// Command simdbtool is a thin demonstration entry point exercising the
// SimDB packages end to end: create a database, realize a schema, insert
// one row. It is not a general-purpose CLI/Python binding
// layer (out of scope per spec.md §1) — just a smoke-test analogous to
// the teacher's cmd/* one-shot maintenance binaries.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/backendproxy/sqlbackend"
	"github.com/spartasim/simdb/internal/config"
	"github.com/spartasim/simdb/internal/objectdb"
	"github.com/spartasim/simdb/internal/objectmgr"
	"github.com/spartasim/simdb/internal/schema"
	"github.com/spartasim/simdb/internal/taskcontroller"
)

func main() {
	path := flag.String("file", "demo.simdb", "path to the database file to create")
	flag.Parse()

	config.LoadDotEnv()
	cfg := config.FromEnv()
	log.Printf("▶ simdbtool: starting (data dir %s, drain interval %s)", cfg.DataDir, cfg.DrainInterval)

	ctx := context.Background()

	tasks := taskcontroller.NewWithMaxThreads(cfg.DrainInterval, cfg.MaxThreads)
	if err := tasks.Start(ctx); err != nil {
		log.Fatalf("❌ simdbtool: start task controller: %v", err)
	}
	defer tasks.Stop(ctx)

	s := schema.NewSchema()
	s.AddTable("Employees").
		AddColumn("Name", schema.String).
		AddColumn("Age", schema.Int32, schema.WithIndexed()).
		Done()

	mgr := objectmgr.New(sqlbackend.New())
	if err := mgr.CreateDatabase(ctx, *path, s, "Demo"); err != nil {
		log.Fatalf("❌ simdbtool: create database: %v", err)
	}
	defer mgr.Close()

	db := objectdb.New(mgr, "Demo")
	proxy := mgr.Proxy()

	id, err := proxy.CreateObject(ctx, db.QualifiedName("Employees"), backendproxy.RowValues{
		"Name": "ada",
		"Age":  36,
	})
	if err != nil {
		log.Fatalf("❌ simdbtool: create object: %v", err)
	}
	log.Printf("✅ simdbtool: created Employees row id=%d in %s", id, *path)
}
