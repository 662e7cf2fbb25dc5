package assets

import (
	"encoding/base64"
	"strings"

	"QChat/tools/errs"
)

// DecodePayload accepts the image formats browser clients send: a data URI
// ("data:image/png;base64,....") or a bare base64 string. Returns the raw
// bytes and a content type.
func DecodePayload(payload string) ([]byte, string, error) {
	contentType := defaultCT
	b64 := payload

	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return nil, "", errs.ErrValidation.WithDetail("malformed data URI")
		}
		meta := payload[len("data:"):comma]
		b64 = payload[comma+1:]
		if semi := strings.IndexByte(meta, ';'); semi >= 0 {
			meta = meta[:semi]
		}
		if meta != "" {
			contentType = meta
		}
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, "", errs.ErrValidation.Wrap(err)
	}
	return data, contentType, nil
}
