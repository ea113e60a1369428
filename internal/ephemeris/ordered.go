package ephemeris

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ordered is a string-keyed JSON object that keeps insertion order, so snapshots list
// signs and bodies in ecliptic and catalog order instead of alphabetically.
type Ordered[V any] struct {
	keys   []string
	values map[string]V
}

// Set inserts or replaces a value. Replacing keeps the original position.
func (o *Ordered[V]) Set(key string, v V) {
	if o.values == nil {
		o.values = make(map[string]V)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value stored under key.
func (o Ordered[V]) Get(key string) (V, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o Ordered[V]) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of entries.
func (o Ordered[V]) Len() int {
	return len(o.keys)
}

func (o Ordered[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *Ordered[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = Ordered[V]{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	*o = Ordered[V]{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decoding %q: %w", key, err)
		}
		o.Set(key, v)
	}
	_, err = dec.Token()
	return err
}
