package preview

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// RenderRequest is one render invocation as sent by a host editor.
type RenderRequest struct {
	Text    string     `json:"text"`
	Options *Overrides `json:"options,omitempty"`
}

// DecodeRequest reads a JSON RenderRequest. Wrong field types fail fast
// with an *OptionError instead of being handed to the renderer.
func DecodeRequest(r io.Reader) (RenderRequest, error) {
	var req RenderRequest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return RenderRequest{}, nil
		}
		return RenderRequest{}, requestError(err)
	}
	var rest json.RawMessage
	if err := dec.Decode(&rest); !errors.Is(err, io.EOF) {
		return RenderRequest{}, fmt.Errorf("%w: unexpected data after request object", ErrInvalidRequest)
	}
	return req, nil
}

// ParseRequest is DecodeRequest over a byte slice.
func ParseRequest(data []byte) (RenderRequest, error) {
	return DecodeRequest(bytes.NewReader(data))
}

func requestError(err error) error {
	var optErr *OptionError
	if errors.As(err, &optErr) {
		return optErr
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			return fmt.Errorf("%w: request must be an object, got %s", ErrInvalidRequest, typeErr.Value)
		}
		if field == "options" {
			return newOptionError("", errors.New("options must be an object"))
		}
		return newOptionError(field, fmt.Errorf("must be a %s, got %s", typeErr.Type, typeErr.Value))
	}
	return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
}

// UnmarshalJSON decodes a partial options object. Known flags are type
// checked; unknown keys are kept in Extra.
func (o *Overrides) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return newOptionError("", errors.New("options must be an object"))
	}
	*o = Overrides{}
	var err error
	for key, val := range raw {
		if isNull(val) {
			continue
		}
		switch key {
		case "skipHtml":
			o.SkipHTML, err = decodeBool(key, val)
		case "escapeHtml":
			o.EscapeHTML, err = decodeBool(key, val)
		case "sourcePos":
			o.SourcePos, err = decodeBool(key, val)
		case "unwrapDisallowed":
			o.UnwrapDisallowed, err = decodeBool(key, val)
		case "gfm":
			o.GFM, err = decodeBool(key, val)
		case "hardWraps":
			o.HardWraps, err = decodeBool(key, val)
		case "mdx":
			o.MDX, err = decodeBool(key, val)
		case "frontmatter":
			o.Frontmatter, err = decodeBool(key, val)
		case "highlight":
			o.Highlight, err = decodeBool(key, val)
		case "emoji":
			o.Emoji, err = decodeBool(key, val)
		case "sanitize":
			o.Sanitize, err = decodeBool(key, val)
		case "linkTarget":
			var s string
			if json.Unmarshal(val, &s) != nil {
				err = newOptionError(key, errors.New("must be a string"))
				break
			}
			o.LinkTarget = &s
		case "disallowedTypes":
			var types []string
			if json.Unmarshal(val, &types) != nil {
				err = newOptionError(key, errors.New("must be an array of strings"))
				break
			}
			o.DisallowedTypes = types
		default:
			var v any
			if uerr := json.Unmarshal(val, &v); uerr != nil {
				err = newOptionError(key, uerr)
				break
			}
			if o.Extra == nil {
				o.Extra = make(map[string]any)
			}
			o.Extra[key] = v
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON encodes only the fields that are set.
func (o Overrides) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(o.Extra)+13)
	for k, v := range o.Extra {
		m[k] = v
	}
	putBool(m, "skipHtml", o.SkipHTML)
	putBool(m, "escapeHtml", o.EscapeHTML)
	putBool(m, "sourcePos", o.SourcePos)
	putBool(m, "unwrapDisallowed", o.UnwrapDisallowed)
	putBool(m, "gfm", o.GFM)
	putBool(m, "hardWraps", o.HardWraps)
	putBool(m, "mdx", o.MDX)
	putBool(m, "frontmatter", o.Frontmatter)
	putBool(m, "highlight", o.Highlight)
	putBool(m, "emoji", o.Emoji)
	putBool(m, "sanitize", o.Sanitize)
	if o.LinkTarget != nil {
		m["linkTarget"] = *o.LinkTarget
	}
	if o.DisallowedTypes != nil {
		m["disallowedTypes"] = o.DisallowedTypes
	}
	return json.Marshal(m)
}

// MarshalJSON flattens Extra next to the known flags. Known flags win on
// key collisions.
func (o Options) MarshalJSON() ([]byte, error) {
	type plain Options
	b, err := json.Marshal(plain(o))
	if err != nil || len(o.Extra) == 0 {
		return b, err
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(b, &known); err != nil {
		return nil, err
	}
	m := make(map[string]any, len(known)+len(o.Extra))
	for k, v := range o.Extra {
		m[k] = v
	}
	for k, v := range known {
		m[k] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a complete options object. Absent flags are false.
func (o *Options) UnmarshalJSON(data []byte) error {
	var ov Overrides
	if err := ov.UnmarshalJSON(data); err != nil {
		return err
	}
	*o = Merge(&ov, Options{})
	return nil
}

func decodeBool(key string, val json.RawMessage) (*bool, error) {
	var b bool
	if err := json.Unmarshal(val, &b); err != nil {
		return nil, newOptionError(key, errors.New("must be a boolean"))
	}
	return &b, nil
}

func putBool(m map[string]any, key string, v *bool) {
	if v != nil {
		m[key] = *v
	}
}

func isNull(val json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(val), []byte("null"))
}
