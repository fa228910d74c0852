package utils

import (
	"bufio"
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if key != "" {
				result[key] = value
			}
		}
	}
	return result
}

// ReadURIList loads the whole list file. Blank lines and lines starting
// with '#' are skipped; CRLF endings are tolerated.
func ReadURIList(filePath string) ([]string, error) {
	log := GetLogger("config")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading URI list: %w", err)
	}
	var entries []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error parsing URI list: %w", err)
	}
	log.Debug().Int("count", len(entries)).Str("file", filePath).Msg("Entries loaded from list")
	return entries, nil
}

// ItemURL appends a list fragment to the base server URL.
func ItemURL(baseURL, fragment string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	return base.JoinPath(strings.TrimLeft(fragment, "/")).String(), nil
}

// ItemOutputPath places a list fragment under root (the working directory
// when root is empty). Fragments that would escape root are rejected.
func ItemOutputPath(root, fragment string) (string, error) {
	rel := filepath.FromSlash(fragment)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("fragment %q is not a local path", fragment)
	}
	if root == "" {
		root = "."
	}
	return filepath.Join(root, rel), nil
}
