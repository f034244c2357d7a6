package dto

import (
	"encoding/json"

	"github.com/apimsync/apimsync/pkg/errors"
)

// PolicyBody extracts the raw XML stored in properties.value of a policy
// envelope. The on-disk XML file holds exactly this content.
func PolicyBody(raw []byte) (string, error) {
	var p Policy
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", errors.Wrap(errors.ErrCodeSchema, err, "deserializing policy envelope")
	}
	if p.Properties == nil || p.Properties.Value == "" {
		return "", missingProperty("properties.value")
	}
	return p.Properties.Value, nil
}

// InjectPolicyBody reconstitutes the wire envelope from the side-stored
// XML. When an information file exists alongside the XML its fields win on
// overlap, except that format and value always come from the XML file.
func InjectPolicyBody(xml string, information map[string]any) map[string]any {
	envelope := map[string]any{
		"properties": map[string]any{
			"format": "rawxml",
			"value":  xml,
		},
	}
	if information == nil {
		return envelope
	}
	merged := Merge(envelope, information)
	props, _ := Properties(merged, true)
	props["format"] = "rawxml"
	props["value"] = xml
	return merged
}
