package seed

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

type envelope struct {
	Record string `json:"record"`
}

type organizationLine struct {
	Record string `json:"record"`
	Organization
}

type donationLine struct {
	Record string `json:"record"`
	Donation
}

// decode reads gzipped JSON lines from r. Blank lines are skipped.
func decode(ctx context.Context, r io.Reader) (*Batch, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	batch := &Batch{}
	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		switch env.Record {
		case RecordOrganization:
			var rec organizationLine
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			batch.Organizations = append(batch.Organizations, rec.Organization)
		case RecordDonation:
			var rec donationLine
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			batch.Donations = append(batch.Donations, rec.Donation)
		default:
			return nil, fmt.Errorf("line %d: unknown record type %q", lineNo, env.Record)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seed data: %w", err)
	}
	return batch, nil
}

// Write encodes batch as gzipped JSON lines, organizations first.
func Write(w io.Writer, batch *Batch) error {
	gzipWriter := gzip.NewWriter(w)
	enc := json.NewEncoder(gzipWriter)

	for _, org := range batch.Organizations {
		if err := enc.Encode(organizationLine{Record: RecordOrganization, Organization: org}); err != nil {
			return fmt.Errorf("failed to encode organization %s: %w", org.ID, err)
		}
	}
	for _, d := range batch.Donations {
		if err := enc.Encode(donationLine{Record: RecordDonation, Donation: d}); err != nil {
			return fmt.Errorf("failed to encode donation %q: %w", d.ProductName, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush seed data: %w", err)
	}
	return nil
}
