package manifest

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// LoadFile reads a .cue manifest file and compiles every game it
// declares, in declaration order. A file usually declares exactly one
// game under the top-level "game" struct:
//
//	game: coins: {
//	    players: { min: 2, max: 4 }
//	    action: take: { ... }
//	}
func LoadFile(path string) ([]*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return LoadBytes(data, path)
}

// LoadBytes compiles manifest source. filename is used in error
// positions only.
func LoadBytes(data []byte, filename string) ([]*Manifest, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	gameVal := v.LookupPath(cue.ParsePath("game"))
	if !gameVal.Exists() {
		return nil, &CompileError{
			Field:   "game",
			Message: "manifest declares no top-level game struct",
			Pos:     v.Pos(),
		}
	}

	iter, err := gameVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []*Manifest
	for iter.Next() {
		m, err := CompileManifest(iter.Value())
		if err != nil {
			return nil, err
		}
		// The iterator label is authoritative; CompileManifest reads the
		// path, which is identical here, but quoted labels normalize
		// differently.
		m.Name = iter.Label()
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, &CompileError{
			Field:   "game",
			Message: "manifest declares no games",
			Pos:     gameVal.Pos(),
		}
	}
	return out, nil
}
