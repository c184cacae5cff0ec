package opt

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
)

// Evaluator decodes batches of keys on a fixed pool of workers. Worker w
// handles keys w, w+W, w+2W and so on with decoder scratch set w.
type Evaluator struct {
	dec *fjsp.Decoder
}

func NewEvaluator(inst *fjsp.Instance, workers int) (*Evaluator, error) {
	dec, err := fjsp.NewDecoder(inst, workers)
	if err != nil {
		return nil, err
	}
	return &Evaluator{dec: dec}, nil
}

func (e *Evaluator) Workers() int { return e.dec.Workers() }

func (e *Evaluator) Instance() *fjsp.Instance { return e.dec.Instance() }

// Evaluate writes the objectives of keys[i] to out[i]. It stops at the first
// decode error or when ctx is done.
func (e *Evaluator) Evaluate(ctx context.Context, keys [][]float64, out []fjsp.Objectives) error {
	if len(out) < len(keys) {
		return fmt.Errorf("output holds %d values for %d keys", len(out), len(keys))
	}
	workers := min(e.dec.Workers(), len(keys))
	if workers <= 1 {
		for i, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := e.dec.Decode(0, key)
			if err != nil {
				return err
			}
			out[i] = v
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := w; i < len(keys); i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				v, err := e.dec.Decode(w, keys[i])
				if err != nil {
					return err
				}
				out[i] = v
			}
			return nil
		})
	}
	return g.Wait()
}
