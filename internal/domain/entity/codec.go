package entity

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ISOLayout is the fixed-width UTC layout used for string timestamps, so that
// lexical order matches chronological order in the store.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// FormatISO renders t in ISOLayout.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// decodeDocument maps raw document data onto out. String timestamps are parsed
// as RFC 3339 and backend integer widths are narrowed.
func decodeDocument(data map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func putIfSet(m map[string]interface{}, key, value string) {
	if value != "" {
		m[key] = value
	}
}
