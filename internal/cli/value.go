package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/roach88/tristore/internal/harness"
	"github.com/roach88/tristore/internal/triple"
)

// valueFlags selects how an object argument is read.
type valueFlags struct {
	Kind     string
	Lang     string
	Datatype string
}

var valueKinds = []string{"string", "node", "integer", "float", "boolean", "datetime", "bytes", "json", "null"}

func (v *valueFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&v.Kind, "kind", "k", "string", fmt.Sprintf("object kind %v", valueKinds))
	fs.StringVar(&v.Lang, "lang", "", "language tag for string objects")
	fs.StringVar(&v.Datatype, "datatype", "", "datatype IRI for string objects")
}

// parse reads raw as an object of the selected kind. Bytes are hex.
func (v *valueFlags) parse(raw string) (triple.Value, error) {
	spec := harness.ValueSpec{Lang: v.Lang, Datatype: v.Datatype}
	switch v.Kind {
	case "string":
		spec.String = &raw
	case "node":
		spec.Node = &raw
	case "integer":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integer object: %w", err)
		}
		spec.Integer = &n
	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("float object: %w", err)
		}
		spec.Float = &f
	case "boolean":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("boolean object: %w", err)
		}
		spec.Boolean = &b
	case "datetime":
		if _, err := time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("datetime object: %w", err)
		}
		spec.DateTime = &raw
	case "bytes":
		spec.Bytes = &raw
	case "json":
		spec.JSON = &raw
	case "null":
		spec.Null = true
	default:
		return nil, fmt.Errorf("unknown object kind %q: must be one of %v", v.Kind, valueKinds)
	}
	return spec.Value()
}

// tripleView is the JSON rendering of a stored triple.
type tripleView struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	Predicate  string `json:"predicate"`
	Object     string `json:"object"`
	ObjectKind string `json:"object_kind"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func viewOf(t triple.Triple) tripleView {
	obj := t.Object
	if obj == nil {
		obj = triple.Null{}
	}
	v := tripleView{
		ID:         t.ID().Hex(),
		Subject:    t.Subject.String(),
		Predicate:  string(t.Predicate),
		Object:     obj.String(),
		ObjectKind: obj.Kind().String(),
	}
	if !t.CreatedAt.IsZero() {
		v.CreatedAt = t.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return v
}
