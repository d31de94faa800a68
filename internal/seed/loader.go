package seed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for gzipped seed files on local disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based seed loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "seed-loader").Logger(),
	}
}

// Load reads a gzipped seed file from disk.
func (l *fileLoader) Load(ctx context.Context, path string) (*Batch, error) {
	l.logger.Info().Str("file", path).Msg("loading seed file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open seed file")
		return nil, fmt.Errorf("failed to open seed file %s: %w", path, err)
	}
	defer file.Close()

	batch, err := decode(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read seed file")
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("organizations", len(batch.Organizations)).
		Int("donations", len(batch.Donations)).
		Msg("seed file loaded successfully")

	return batch, nil
}

// WriteFile writes batch to path, creating parent directories as needed.
func WriteFile(path string, batch *Batch) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create seed file %s: %w", path, err)
	}

	if err := Write(file, batch); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
