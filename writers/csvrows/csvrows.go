package csvrows

import (
	"context"
	"encoding/csv"
	"errors"

	"github.com/gosom/scrapemate"

	"github.com/sadewadee/google-place-resolver/place"
)

// Writer implements scrapemate.ResultWriter and writes both single places
// (*place.Place) and batches ([]*place.Place) to CSV, always emitting headers
// once per stream.
type Writer struct {
	cw          *csv.Writer
	wroteHeader bool
}

// New constructs a CSV rows writer that understands both *place.Place and []*place.Place.
func New(cw *csv.Writer) scrapemate.ResultWriter {
	return &Writer{cw: cw}
}

func (w *Writer) Run(ctx context.Context, in <-chan scrapemate.Result) error {
	defer w.cw.Flush()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-in:
			if !ok {
				return nil
			}

			places, err := toPlaces(res.Data)
			if err != nil {
				// Be strict to surface pipeline type mismatches
				return err
			}

			if len(places) == 0 {
				continue
			}

			if !w.wroteHeader {
				if err := w.cw.Write(places[0].CsvHeaders()); err != nil {
					return err
				}

				w.wroteHeader = true
			}

			for _, p := range places {
				if p == nil {
					continue
				}

				if err := w.cw.Write(p.CsvRow()); err != nil {
					return err
				}
			}
		}
	}
}

func toPlaces(data any) ([]*place.Place, error) {
	switch v := data.(type) {
	case *place.Place:
		if v == nil {
			return nil, nil
		}

		return []*place.Place{v}, nil
	case []*place.Place:
		return v, nil
	default:
		return nil, errors.New("csvrows: unsupported data type (expected *place.Place or []*place.Place)")
	}
}
