// inspect dumps the raw keyspace of a chatmesh database for debugging.
// Run it against a stopped server's DB path, optionally filtering by key
// prefix (msg:, conv:, out:, unread:, user:, asset:).
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
)

func main() {
	dbPath := flag.String("db", "./.database", "Pebble DB path")
	prefix := flag.String("prefix", "", "only dump keys with this prefix")
	keysOnly := flag.Bool("keys", false, "print keys without values")
	flag.Parse()

	db, err := pebble.Open(*dbPath, &pebble.Options{ReadOnly: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer db.Close()

	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create iterator: %v\n", err)
		os.Exit(1)
	}
	defer iter.Close()

	p := []byte(*prefix)
	n := 0
	for iter.SeekGE(p); iter.Valid(); iter.Next() {
		if len(p) > 0 && !bytes.HasPrefix(iter.Key(), p) {
			break
		}
		if *keysOnly {
			fmt.Printf("%s\n", iter.Key())
		} else {
			fmt.Printf("%s\t%s\n", iter.Key(), iter.Value())
		}
		n++
	}
	if err := iter.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "iterator error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%d keys\n", n)
}
