// Package render writes decoded save headers in the formats the CLI offers.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	saveerrors "github.com/knoxfighter/factorio-lib/pkg/saves/errors"
	"github.com/knoxfighter/factorio-lib/pkg/saves/header"
)

// Format names an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
	FormatTOML Format = "toml"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatCBOR, FormatTOML}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", saveerrors.ErrUnknownFormat, s)
}

// Document is one rendered save: the header plus where it came from.
type Document struct {
	Path   string             `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty" cbor:"path,omitempty"`
	Digest string             `json:"digest,omitempty" yaml:"digest,omitempty" toml:"digest,omitempty" cbor:"digest,omitempty"`
	Header *header.SaveHeader `json:"header" yaml:"header" toml:"header" cbor:"header"`
}

// tomlDocuments wraps a list for TOML, which needs a table at the top.
type tomlDocuments struct {
	Saves []Document `toml:"saves"`
}

// encMode is core deterministic CBOR with text marshalers as strings, so
// enums encode by name.
var encMode cbor.EncMode

func init() {
	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString

	var err error
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("render: CBOR encoder initialization failed: " + err.Error())
	}
}

// Render writes one header.
func Render(w io.Writer, format Format, h *header.SaveHeader) error {
	return RenderDocuments(w, format, []Document{{Header: h}})
}

// RenderDocuments writes several saves. Structured formats emit one list
// (or a "saves" table for TOML); text prints one block per save.
func RenderDocuments(w io.Writer, format Format, docs []Document) error {
	switch format {
	case FormatText:
		for i, doc := range docs {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, Text(doc)); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(docs) == 1 {
			return enc.Encode(docs[0])
		}
		return enc.Encode(docs)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		var err error
		if len(docs) == 1 {
			err = enc.Encode(docs[0])
		} else {
			err = enc.Encode(docs)
		}
		if err != nil {
			return err
		}
		return enc.Close()
	case FormatCBOR:
		var v any = docs
		if len(docs) == 1 {
			v = docs[0]
		}
		return encMode.NewEncoder(w).Encode(v)
	case FormatTOML:
		enc := toml.NewEncoder(w)
		if len(docs) == 1 {
			return enc.Encode(docs[0])
		}
		return enc.Encode(tomlDocuments{Saves: docs})
	default:
		return fmt.Errorf("%w: %q", saveerrors.ErrUnknownFormat, string(format))
	}
}
