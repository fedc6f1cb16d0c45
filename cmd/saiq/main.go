// Command saiq is an interactive shell for building key ranges and merging
// them with the index union iterator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/KevoDB/sai/pkg/common/log"
	"github.com/KevoDB/sai/pkg/config"
	"github.com/KevoDB/sai/pkg/telemetry"
)

// Command completer for readline
var completer = readline.NewPrefixCompleter(
	readline.PcItem(".help"),
	readline.PcItem(".exit"),
	readline.PcItem("RANGE"),
	readline.PcItem("LOAD"),
	readline.PcItem("RANGES"),
	readline.PcItem("DROP"),
	readline.PcItem("UNION",
		readline.PcItem("SKIP"),
	),
)

const helpText = `
saiq - interactive key range union shell

Usage:
  saiq [options]

Options:
  -config string          - Path to a JSON configuration file
  -log-level string       - Log level override (debug, info, warn, error)
  -partitioner string     - Partitioner override (hash, byteordered)

Commands:
  .help                   - Show this help message
  .exit                   - Exit the program

  RANGE name key...       - Define range name from the given keys
  LOAD name file          - Define range name from a file of keys, one per line
                          - .zst, .sz and .gz files are decompressed
  RANGES                  - List the defined ranges
  DROP name               - Remove a range
  UNION [name...]         - Merge the named ranges (default: all ranges)
  UNION [name...] SKIP key
                          - Merge, starting at the first key >= key

Keys:
  part                    - Row of partition part
  part/clust              - Row of partition part with clustering clust
  part/*                  - Static row of partition part
  #123                    - Token-only key
                          - Components may be written as 0x-prefixed hex
`

func main() {
	configPath := flag.String("config", "", "Path to a JSON configuration file")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	partitioner := flag.String("partitioner", "", "Partitioner override (hash, byteordered)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %s\n", err)
		os.Exit(1)
	}

	cfg.Update(func(c *config.Config) {
		if *logLevel != "" {
			c.LogLevel = *logLevel
		}
		if *partitioner != "" {
			c.Partitioner = *partitioner
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	logger := log.NewStandardLogger(log.WithLevel(cfg.Level()))
	log.SetDefaultLogger(logger)

	tel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			logger.Warn("Telemetry shutdown failed: %v", err)
		}
	}()

	if handler := telemetry.MetricsHandler(tel); handler != nil {
		server := NewMetricsServer(fmt.Sprintf(":%d", cfg.Telemetry.PrometheusPort), handler, logger)
		if err := server.Start(); err != nil {
			logger.Error("Failed to start metrics server: %v", err)
		} else {
			defer server.Stop(context.Background())
		}
	}

	factory, err := cfg.KeyFactory()
	if err != nil {
		logger.Fatal("%v", err)
	}

	shell := NewShell(factory, cfg.RangeHint, tel, logger, os.Stdout)
	runInteractive(shell, cfg.HistoryFile)
}

func runInteractive(shell *Shell, historyFile string) {
	fmt.Println("saiq - key range union shell")
	fmt.Println("Enter .help for usage hints.")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "saiq> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing readline: %s\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		line, readErr := rl.Readline()
		if readErr != nil {
			if readErr == readline.ErrInterrupt {
				if len(line) == 0 {
					break
				}
				continue
			} else if readErr == io.EOF {
				fmt.Println("Goodbye!")
				break
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %s\n", readErr)
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := shell.Execute(context.Background(), line); err != nil {
			if errors.Is(err, errExit) {
				fmt.Println("Goodbye!")
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
	}
}
