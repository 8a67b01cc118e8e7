// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/resolution-engine/pkg/types"
)

// textProvider yields transcript or description text. Without a data path
// the whole body is one sample; with one, the string (or array of strings)
// at that path is used.
type textProvider struct{}

func (textProvider) Kind() types.ProviderKind { return types.ProviderText }

func (textProvider) SampleKind() types.SampleKind { return types.SampleText }

func (textProvider) Decode(raw []byte, opts Options, yield func(types.EvidenceSample) bool) error {
	if opts.DataPath == "" {
		yield(types.EvidenceSample{Kind: types.SampleText, Text: strings.TrimSpace(string(raw))})
		return nil
	}

	page, err := parseJSON(raw)
	if err != nil {
		return err
	}
	r := page.Get(opts.DataPath)
	if !r.Exists() || r.Type == gjson.Null {
		return shapeError(-1, "no text at %q", opts.DataPath)
	}
	if !r.IsArray() {
		if r.Type != gjson.String {
			return shapeError(-1, "value at %q is %s, not text", opts.DataPath, r.Type)
		}
		yield(types.EvidenceSample{Kind: types.SampleText, Text: r.Str})
		return nil
	}
	return eachRow(r, func(i int, item gjson.Result) (bool, error) {
		if item.Type != gjson.String {
			return false, shapeError(i, "element is %s, not text", item.Type)
		}
		return yield(types.EvidenceSample{Kind: types.SampleText, Text: item.Str}), nil
	})
}
