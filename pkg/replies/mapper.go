package replies

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// ObjectMapper maps a decoded JSON value (maps, slices, scalars) onto a
// typed model.
type ObjectMapper interface {
	Map(raw any, out any) error
}

type structMapper struct{}

// NewObjectMapper returns the default mapper. It matches fields by their json
// tag, parses RFC 3339 timestamps and accepts loosely typed scalars.
func NewObjectMapper() ObjectMapper { return structMapper{} }

func (structMapper) Map(raw any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
		Result: out,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	return dec.Decode(raw)
}
