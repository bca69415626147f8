// Command colbase demonstrates direct use of the storage engine: insert,
// versioned read, update, delete, index lookup, and a close/reopen
// persistence round trip. Its few updates stay within one tail page, below
// the merge threshold, so no background merge runs. It talks to
// internal/engine directly — there is no query language layered on top.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mlaurent/colbase/internal/bufferpool"
	"github.com/mlaurent/colbase/internal/engine"
)

func main() {
	root, err := os.MkdirTemp("", "colbase-demo-")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(root)

	fmt.Println("=== colbase — storage engine demo ===")
	fmt.Println()

	cfg := engine.DefaultConfig()
	cfg.MergeThresholdPages = 4
	pool := bufferpool.New(cfg.BufferPoolSize)

	// 3 user columns: id (key), balance, flags.
	tbl, err := engine.CreateTable(root, "accounts", 3, 0, pool, cfg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("--- insert ---")
	var rids []int64
	for i := int64(0); i < 6; i++ {
		rid, err := tbl.Insert([]int64{i, 1000 * (i + 1), 0})
		if err != nil {
			log.Fatalf("insert: %v", err)
		}
		rids = append(rids, rid)
		fmt.Printf("  inserted id=%d rid=%d\n", i, rid)
	}
	fmt.Println()

	fmt.Println("--- index lookup on key column ---")
	for _, rid := range tbl.Index().Locate(0, 3) {
		fmt.Printf("  key=3 -> rid=%d\n", rid)
	}
	fmt.Println()

	fmt.Println("--- update (repeated, to exercise the indirection chain) ---")
	for step := int64(1); step <= 5; step++ {
		delta := step * 10
		if err := tbl.Update(rids[2], []*int64{nil, &delta, nil}); err != nil {
			log.Fatalf("update: %v", err)
		}
		got, err := tbl.Read(rids[2], 1)
		if err != nil {
			log.Fatalf("read after update: %v", err)
		}
		fmt.Printf("  balance column now %d\n", got)
	}
	fmt.Println()

	fmt.Println("--- read_version: rv=0 latest vs. a nonzero rv returning the original base value ---")
	latest, _ := tbl.ReadVersion(rids[2], 1, 0)
	base, _ := tbl.ReadVersion(rids[2], 1, -1)
	fmt.Printf("  latest=%d base=%d\n", latest, base)
	fmt.Println()

	fmt.Println("--- create index on balance, then delete one record ---")
	if err := tbl.CreateIndex(1); err != nil {
		log.Fatalf("create index: %v", err)
	}
	fmt.Println("  balance index buckets:", tbl.Index().Entries(1))
	if err := tbl.Delete(rids[5]); err != nil {
		log.Fatalf("delete: %v", err)
	}
	if _, err := tbl.Read(rids[5], 0); err != nil {
		fmt.Printf("  read after delete: %v\n", err)
	}
	fmt.Println()

	fmt.Println("--- close (flushes metadata, drains the deallocation log) and reopen ---")
	if err := tbl.Close(); err != nil {
		log.Fatalf("close: %v", err)
	}

	pool2 := bufferpool.New(cfg.BufferPoolSize)
	reopened, err := engine.Open(root, "accounts", pool2, cfg)
	if err != nil {
		log.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	for _, rid := range rids[:5] {
		val, err := reopened.Read(rid, 1)
		if err != nil {
			log.Fatalf("read after reopen: %v", err)
		}
		fmt.Printf("  rid=%d balance=%d\n", rid, val)
	}

	fmt.Println()
	fmt.Println("=== done ===")
}
