package httpframe

import (
	"bufio"
	"fmt"
	"os"
)

// ReadBodyFile assembles a response body by reading path line by line and
// rejoining with '\n'. This is the only source of body bytes; binary files
// are not a supported use case. Any open/read failure is returned to the
// caller as a wrapped error rather than converted into a response.
func ReadBodyFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("httpframe: open body file %s: %w", path, err)
	}
	defer f.Close()

	var body []byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	first := true
	for scanner.Scan() {
		if !first {
			body = append(body, '\n')
		}
		first = false
		body = append(body, scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("httpframe: read body file %s: %w", path, err)
	}
	return body, nil
}
