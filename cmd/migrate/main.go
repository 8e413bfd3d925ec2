package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/aktagon/digest-scraper/internal/logger"
	"github.com/aktagon/digest-scraper/internal/safename"
)

const digestPattern = "*Digest*"

func main() {
	log, err := logger.New(logger.Config{Level: os.Getenv("LOG_LEVEL")})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := run(os.Args[1:], log)
	_ = log.Sync()
	os.Exit(code)
}

// run executes one migration command and returns the process exit code.
func run(args []string, log logger.Logger) int {
	if len(args) < 2 {
		log.Error("Usage: migrate <sanitize-names|find-duplicates> <digest-directory>")
		return 1
	}
	command, dir := args[0], args[1]

	var (
		n   int
		err error
	)
	switch command {
	case "sanitize-names":
		n, err = sanitizeNames(dir, log)
	case "find-duplicates":
		var groups [][]string
		groups, err = findDuplicates(dir)
		for _, group := range groups {
			log.Info("Duplicate digest files", logger.String("original", group[0]), logger.Strings("duplicates", group[1:]))
			n += len(group) - 1
		}
	default:
		err = fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		log.Error("Migration failed", logger.String("command", command), logger.Error(err))
		return 1
	}
	log.Info("Migration finished", logger.String("command", command), logger.Int("files", n))
	return 0
}

// digestFiles lists the regular files in dir matching digestPattern, sorted by name.
func digestFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if ok, _ := filepath.Match(digestPattern, e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// sanitizeNames renames digest files saved before titles were sanitized. Files whose
// sanitized name is already taken are left alone.
func sanitizeNames(dir string, log logger.Logger) (int, error) {
	names, err := digestFiles(dir)
	if err != nil {
		return 0, err
	}

	renamed := 0
	for _, name := range names {
		if safename.IsSafe(name) {
			continue
		}
		clean, err := safename.Sanitize(name)
		if err != nil {
			log.Warn("Cannot sanitize name, skipping", logger.String("file", name), logger.Error(err))
			continue
		}

		target := filepath.Join(dir, clean)
		if _, err := os.Lstat(target); err == nil {
			log.Warn("Sanitized name already exists, skipping", logger.String("file", name), logger.String("target", clean))
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return renamed, fmt.Errorf("checking %s: %w", clean, err)
		}

		log.Info("Renaming", logger.String("from", name), logger.String("to", clean))
		if err := os.Rename(filepath.Join(dir, name), target); err != nil {
			return renamed, fmt.Errorf("renaming %s: %w", name, err)
		}
		renamed++
	}
	return renamed, nil
}

// findDuplicates groups digest files with identical content. Each group lists the
// first file in name order followed by its copies. Nothing is renamed or removed.
func findDuplicates(dir string) ([][]string, error) {
	names, err := digestFiles(dir)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var groups [][]string
	for _, name := range names {
		hash, err := fileHash(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if i, ok := index[hash]; ok {
			groups[i] = append(groups[i], name)
			continue
		}
		index[hash] = len(groups)
		groups = append(groups, []string{name})
	}

	duplicates := groups[:0]
	for _, group := range groups {
		if len(group) > 1 {
			duplicates = append(duplicates, group)
		}
	}
	return duplicates, nil
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
