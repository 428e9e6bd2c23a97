// Package scramble produces the fixed scramble batch a room is created with.
// The underlying per-event generator is pluggable; the default one samples
// random move sequences in WCA notation.
package scramble

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"cuberooms/internal/model"
)

// Generator produces one scramble for an event.
type Generator interface {
	Scramble(ctx context.Context, event model.Event) (string, error)
}

type eventSpec struct {
	faces    []string
	axes     []int // axis id per face, same-axis moves never repeat back to back
	suffixes []string
	length   int
}

var specs = map[model.Event]eventSpec{
	model.Event2x2: {
		faces:    []string{"R", "U", "F"},
		axes:     []int{0, 1, 2},
		suffixes: []string{"", "'", "2"},
		length:   9,
	},
	model.Event3x3: {
		faces:    []string{"R", "L", "U", "D", "F", "B"},
		axes:     []int{0, 0, 1, 1, 2, 2},
		suffixes: []string{"", "'", "2"},
		length:   20,
	},
	model.Event3x3OH: {
		faces:    []string{"R", "L", "U", "D", "F", "B"},
		axes:     []int{0, 0, 1, 1, 2, 2},
		suffixes: []string{"", "'", "2"},
		length:   20,
	},
	model.Event4x4: {
		faces:    []string{"R", "L", "U", "D", "F", "B", "Rw", "Uw", "Fw"},
		axes:     []int{0, 0, 1, 1, 2, 2, 0, 1, 2},
		suffixes: []string{"", "'", "2"},
		length:   44,
	},
	model.Event5x5: {
		faces:    []string{"R", "L", "U", "D", "F", "B", "Rw", "Lw", "Uw", "Dw", "Fw", "Bw"},
		axes:     []int{0, 0, 1, 1, 2, 2, 0, 0, 1, 1, 2, 2},
		suffixes: []string{"", "'", "2"},
		length:   60,
	},
	model.EventPyraminx: {
		faces:    []string{"R", "L", "U", "B"},
		axes:     []int{0, 1, 2, 3},
		suffixes: []string{"", "'"},
		length:   11,
	},
}

// Supported reports whether an event has a generator.
func Supported(event model.Event) bool {
	_, ok := specs[event]
	return ok
}

// MoveGenerator is the default Generator: uniformly random moves with no two
// consecutive moves on the same axis.
type MoveGenerator struct{}

func NewMoveGenerator() *MoveGenerator {
	return &MoveGenerator{}
}

func (g *MoveGenerator) Scramble(ctx context.Context, event model.Event) (string, error) {
	spec, ok := specs[event]
	if !ok {
		return "", fmt.Errorf("no scramble spec for event %q", event)
	}

	moves := make([]string, 0, spec.length)
	prevAxis := -1
	for len(moves) < spec.length {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fi, err := randInt(len(spec.faces))
		if err != nil {
			return "", err
		}
		if spec.axes[fi] == prevAxis {
			continue
		}
		si, err := randInt(len(spec.suffixes))
		if err != nil {
			return "", err
		}
		moves = append(moves, spec.faces[fi]+spec.suffixes[si])
		prevAxis = spec.axes[fi]
	}
	return strings.Join(moves, " "), nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// Provider wraps a Generator to produce a room's full batch atomically:
// either every scramble is generated or the batch fails as a whole, so a room
// can never be created with a partial scramble list.
type Provider struct {
	gen Generator
}

func NewProvider(gen Generator) *Provider {
	return &Provider{gen: gen}
}

func (p *Provider) Batch(ctx context.Context, event model.Event, count int) ([]string, error) {
	if !Supported(event) {
		return nil, fmt.Errorf("unsupported event %q", event)
	}

	batch := make([]string, 0, count)
	for i := 0; i < count; i++ {
		s, err := p.gen.Scramble(ctx, event)
		if err != nil {
			return nil, fmt.Errorf("scramble %d of %d for %s: %w", i+1, count, event, err)
		}
		batch = append(batch, s)
	}
	return batch, nil
}
