// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package request loads and validates resolution requests. A request file
// replaces what used to be a hand-written per-question script: it names the
// endpoints, the evidence window, the predicate, and the outcome tokens.
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/resolution-engine/pkg/types"
)

// ErrInvalidRequest marks a request that cannot be evaluated as written.
var ErrInvalidRequest = errors.New("invalid request")

// Format is a request file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatOf picks the encoding from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: unsupported request file extension %q", ErrInvalidRequest, filepath.Ext(path))
	}
}

// Load reads, decodes, and validates a request file.
func Load(path string) (types.ResolutionRequest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return types.ResolutionRequest{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ResolutionRequest{}, fmt.Errorf("reading request file: %w", err)
	}
	req, err := Parse(data, format)
	if err != nil {
		return types.ResolutionRequest{}, err
	}
	if req.ID == "" {
		req.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := Validate(req); err != nil {
		return types.ResolutionRequest{}, err
	}
	return req, nil
}

// Parse decodes data without validating it. Unknown keys are rejected so
// that a misspelled operand does not silently fall back to its zero value.
func Parse(data []byte, format Format) (types.ResolutionRequest, error) {
	var req types.ResolutionRequest
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&req); err != nil {
			return req, fmt.Errorf("%w: parsing yaml: %w", ErrInvalidRequest, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return req, fmt.Errorf("%w: parsing json: %w", ErrInvalidRequest, err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &req)
		if err != nil {
			return req, fmt.Errorf("%w: parsing toml: %w", ErrInvalidRequest, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return req, fmt.Errorf("%w: unknown toml key %q", ErrInvalidRequest, undecoded[0].String())
		}
	default:
		return req, fmt.Errorf("%w: unknown format %q", ErrInvalidRequest, format)
	}
	return req, nil
}
