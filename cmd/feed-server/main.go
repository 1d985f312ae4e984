package main

import (
	"encoding/csv"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
)

func main() {
	dataPath := flag.String("data", "data/feed.csv", "CSV feed file to serve")
	addr := flag.String("addr", ":9000", "listen address")
	flag.Parse()

	http.HandleFunc("/feed.csv", func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(*dataPath)
		if err != nil {
			http.Error(w, "cannot read feed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		// validate CSV so a bad file doesn't silently break clients
		rd := csv.NewReader(strings.NewReader(string(b)))
		rd.FieldsPerRecord = -1
		if _, err := rd.ReadAll(); err != nil {
			http.Error(w, "feed invalid CSV: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	})

	log.Printf("feed-server listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
