// cmd/tools/legacy-import/main.go
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/legacyimport"
)

func main() {
	dir := flag.String("dir", "", "Directory with exported archive records (*.json)")
	out := flag.String("out", "", "Output file for mapped records (default: stdout)")
	flag.Parse()

	if *dir == "" {
		fmt.Println("Error: -dir is required.")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*dir, *out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dir, out string) error {
	log := logger.NewZapAdapter(logger.NewWithOutput("info", "console", "stderr"))

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	buf := bufio.NewWriter(w)
	summary, err := legacyimport.ConvertDir(dir, buf, log)
	if err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}

	log.Info("legacy import finished", map[string]interface{}{
		"files":   summary.Files,
		"written": summary.Written,
		"skipped": summary.Skipped,
	})
	return nil
}
