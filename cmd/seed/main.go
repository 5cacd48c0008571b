// Command seed writes demonstration meter CSVs (one year of daily
// readings for three buildings) into the data directory.
package main

import (
	"flag"
	"log"

	"campus_energy/internal/sample"
)

func main() {
	dir := flag.String("dir", "data", "directory to write sample CSVs into")
	flag.Parse()

	if err := sample.Generate(*dir); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("sample data written to %s for buildings %v", *dir, sample.Buildings)
}
