package parsing

import (
	"encoding/json"
	"fmt"
)

// Decode restores stored content_data into its tagged variant.
func Decode(method Method, data []byte) (ContentData, error) {
	var (
		out ContentData
		err error
	)

	switch method {
	case MethodPrayerPoints:
		var v PrayerList
		err = json.Unmarshal(data, &v)
		out = v
	case MethodSocialMedia:
		var v SocialMap
		err = json.Unmarshal(data, &v)
		out = v
	case MethodVideoScript:
		var v VideoScript
		err = json.Unmarshal(data, &v)
		out = v
	case MethodStructured:
		var v StructuredList
		err = json.Unmarshal(data, &v)
		out = v
	case MethodGeneric:
		var v GenericText
		err = json.Unmarshal(data, &v)
		out = v
	case MethodImage:
		var v ImageSet
		err = json.Unmarshal(data, &v)
		out = v
	case MethodJSON:
		var v any
		err = json.Unmarshal(data, &v)
		doc := JSONDocument{Value: v, Parsed: true}
		if obj, ok := v.(map[string]any); ok && obj["parsed"] == false {
			content, _ := obj["content"].(string)
			doc = JSONDocument{Content: content}
		}
		out = doc
	default:
		return nil, fmt.Errorf("decode content: unknown parsing method %q", method)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s content: %w", method, err)
	}
	return out, nil
}
