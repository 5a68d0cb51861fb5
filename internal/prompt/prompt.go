// Package prompt loads the sentences offered to the recorder.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
)

// Default prompts are used when no prompt file exists.
var Default = []string{
	"The quick brown fox jumps over the lazy dog.",
	"Pack my box with five dozen liquor jugs!",
	"How vexingly quick daft zebras jump.",
	"Sphinx of black quartz, judge my vow.",
}

// Load reads one prompt per line from the provided file path.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only prompt list.
			_ = cerr
		}
	}()
	return Read(file)
}

// Read reads one prompt per line, skipping blank lines and # comments.
func Read(r io.Reader) ([]string, error) {
	var prompts []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompt list is empty")
	}
	return prompts, nil
}

// LoadOrDefault loads prompts from path, falling back to Default when the
// file does not exist.
func LoadOrDefault(path string) ([]string, error) {
	prompts, err := Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default, nil
		}
		return nil, err
	}
	return prompts, nil
}

// Pick returns a random prompt.
func Pick(rng *rand.Rand, prompts []string) string {
	if len(prompts) == 0 {
		return ""
	}
	return prompts[rng.Intn(len(prompts))]
}
