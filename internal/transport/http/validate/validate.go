package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"
)

const maxBodyBytes = 1 << 20

var ErrNotObject = errors.New("body must be a JSON object")

// DecodeObject reads a JSON object keeping numbers as json.Number, so that
// integer ids above 2^53 are not silently rounded before validation.
func DecodeObject(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotObject
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON object")
	}
	return out, nil
}

// DecodePatch is lenient: unknown and immutable keys are left for the
// service to drop.
func DecodePatch(r *http.Request) (map[string]any, error) {
	var out map[string]any
	if err := render.DecodeJSON(io.LimitReader(r.Body, maxBodyBytes), &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotObject
	}
	return out, nil
}
