package storage

import (
	"fmt"
	"os"

	"github.com/san-kum/dpsim/internal/dynamo"
)

// SaveText writes content to dest, replacing any existing file.
func SaveText(dest, content string) error {
	if dest == "" {
		return dynamo.ErrEmptyDestination
	}
	if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrNotWritable, err)
	}
	return nil
}
