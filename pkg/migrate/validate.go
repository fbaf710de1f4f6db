package migrate

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/multierr"
)

const (
	annotationUp    = "-- +goose Up"
	annotationDown  = "-- +goose Down"
	annotationBegin = "-- +goose StatementBegin"
	annotationEnd   = "-- +goose StatementEnd"
)

var migrationNameRe = regexp.MustCompile(`^\d{14}_[a-z0-9_]+\.sql$`)

// ValidateDir checks the migrations stored on disk at dir.
func ValidateDir(dir string) error {
	source, err := Dir(dir)
	if err != nil {
		return err
	}
	return Validate(source)
}

// Validate checks every .sql file in source for a YYYYMMDDHHMMSS_name.sql
// filename, a unique version and well-formed goose annotations. All problems
// are reported together.
func Validate(source fs.FS) error {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	var problems error
	versions := map[int64]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		if !migrationNameRe.MatchString(name) {
			problems = multierr.Append(problems, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		version, err := goose.NumericComponent(name)
		if err != nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if prev, ok := versions[version]; ok {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %d already used by %s", name, version, prev))
			continue
		}
		versions[version] = name

		body, err := fs.ReadFile(source, name)
		if err != nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err := checkAnnotations(string(body)); err != nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: %w", name, err))
		}
	}
	return problems
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	return Validate(Embedded())
}

func checkAnnotations(sql string) error {
	up := strings.Index(sql, annotationUp)
	down := strings.Index(sql, annotationDown)
	switch {
	case up < 0:
		return fmt.Errorf("missing %q", annotationUp)
	case down < 0:
		return fmt.Errorf("missing %q", annotationDown)
	case down < up:
		return fmt.Errorf("%q must come before %q", annotationUp, annotationDown)
	}

	// blocks may not nest or straddle the Up/Down boundary
	open := -1
	for offset, line := range strings.Split(sql, "\n") {
		switch strings.TrimSpace(line) {
		case annotationBegin:
			if open >= 0 {
				return fmt.Errorf("line %d: StatementBegin inside an open block", offset+1)
			}
			open = offset
		case annotationEnd:
			if open < 0 {
				return fmt.Errorf("line %d: StatementEnd without StatementBegin", offset+1)
			}
			open = -1
		case annotationDown:
			if open >= 0 {
				return fmt.Errorf("line %d: Down section starts inside an open block", offset+1)
			}
		}
	}
	if open >= 0 {
		return fmt.Errorf("line %d: StatementBegin is never closed", open+1)
	}
	return nil
}
