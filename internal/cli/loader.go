package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/sortition/internal/protocol"
)

//go:embed manifest.cue
var manifestSchema string

// PoolManifest is a decoded, validated pool manifest.
type PoolManifest struct {
	PoolID  string
	Targets []protocol.Hash32
}

// LoadPoolManifest reads a YAML pool manifest and validates it against the
// embedded CUE schema before decoding. Schema violations surface with CUE's
// own position-bearing messages.
func LoadPoolManifest(path string) (*PoolManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParsePoolManifest(path, raw)
}

// ParsePoolManifest validates and decodes manifest bytes. The filename only
// labels error positions.
func ParsePoolManifest(filename string, raw []byte) (*PoolManifest, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(manifestSchema, cue.Filename("manifest.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}

	file, err := cueyaml.Extract(filename, raw)
	if err != nil {
		return nil, fmt.Errorf("parse manifest YAML: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return nil, fmt.Errorf("build manifest: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#PoolManifest")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("manifest does not match schema: %w", err)
	}

	var decoded struct {
		Pool    string   `json:"pool"`
		Targets []string `json:"targets"`
	}
	if err := unified.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	m := &PoolManifest{PoolID: decoded.Pool}
	for i, text := range decoded.Targets {
		h, err := protocol.ParseHash32(text)
		if err != nil {
			return nil, fmt.Errorf("manifest target %d: %w", i, err)
		}
		m.Targets = append(m.Targets, h)
	}
	return m, nil
}
