package main

import (
	"io"

	"github.com/go-json-experiment/json"
	"github.com/itchyny/gojq"
	"github.com/pkg/errors"
)

// query runs the jq program src over the JSON document doc and writes each result to w as
// one line of JSON.
func query(w io.Writer, src string, doc []byte) error {
	q, err := gojq.Parse(src)
	if err != nil {
		return errors.Wrapf(err, "-query %q", src)
	}

	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return errors.Wrap(err, "decoding JSON output")
	}

	iter := q.Run(v)
	for {
		r, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := r.(error); ok {
			return errors.Wrapf(err, "-query %q", src)
		}
		b, err := json.Marshal(r, json.Deterministic(true))
		if err != nil {
			return errors.Wrapf(err, "-query %q result", src)
		}
		b = append(b, '\n')
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
}
