package seed

import (
	_ "embed"

	"github.com/sinharash/entitypick/internal/catalog"
)

//go:embed demo.cue
var demoCUE []byte

// Demo returns the embedded demo catalog.
func Demo() ([]catalog.Record, error) {
	return Load(demoCUE, "demo.cue")
}
