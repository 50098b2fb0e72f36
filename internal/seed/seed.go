// Package seed loads catalog records authored in CUE. A seed file
// declares a top-level "records" list; each entry must carry a kind and
// metadata.name, and the namespace defaults when omitted.
package seed

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/sinharash/entitypick/internal/catalog"
)

// LoadFile reads and compiles a CUE seed file.
func LoadFile(path string) ([]catalog.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Load(data, path)
}

// Load compiles CUE source and extracts the records list. filename is
// used in error positions only.
func Load(src []byte, filename string) ([]catalog.Record, error) {
	ctx := cuecontext.New()

	val := ctx.CompileBytes(src, cue.Filename(filename))
	if val.Err() != nil {
		return nil, fmt.Errorf("compiling seed CUE: %w", val.Err())
	}

	recordsVal := val.LookupPath(cue.ParsePath("records"))
	if !recordsVal.Exists() {
		return nil, fmt.Errorf("seed file %s must declare a top-level records list", filename)
	}

	var raw []map[string]any
	if err := recordsVal.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	records := make([]catalog.Record, 0, len(raw))
	for i, m := range raw {
		rec := catalog.Record(m)
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
