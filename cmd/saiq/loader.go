package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/KevoDB/sai/pkg/keyrange"
	"github.com/KevoDB/sai/pkg/primarykey"
)

// openKeyFile opens path for reading, decompressing by extension:
// .zst (zstd), .sz (framed snappy) and .gz (gzip). Anything else is read as is.
func openKeyFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return &decodedFile{Reader: dec, file: f, release: dec.Close}, nil

	case ".sz":
		return &decodedFile{Reader: snappy.NewReader(f), file: f}, nil

	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return &decodedFile{Reader: gz, file: f, release: func() { gz.Close() }}, nil

	default:
		return f, nil
	}
}

// decodedFile closes its decoder before the underlying file.
type decodedFile struct {
	io.Reader
	file    *os.File
	release func()
}

func (d *decodedFile) Close() error {
	if d.release != nil {
		d.release()
	}
	return d.file.Close()
}

// readKeys parses one key per line. Blank lines are skipped. The result is
// sorted and free of ordering-equal duplicates.
func readKeys(r io.Reader, factory *primarykey.Factory) ([]*primarykey.PrimaryKey, error) {
	var keys []*primarykey.PrimaryKey

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, err := factory.ParseKey(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keys: %w", err)
	}

	return keyrange.SortKeys(keys), nil
}

// loadKeyFile reads every key in the file at path.
func loadKeyFile(path string, factory *primarykey.Factory) ([]*primarykey.PrimaryKey, error) {
	r, err := openKeyFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return readKeys(r, factory)
}
