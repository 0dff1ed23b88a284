package store

import (
	"encoding/json"
	"fmt"

	"github.com/cindergrid/automaton/internal/aaa"
)

// marshalPipeline serializes a pipeline to JSON TEXT. The tagged-union
// types omit unpopulated variant pointers, so the stored form carries
// exactly one parameter object per task and condition.
func marshalPipeline(pipe aaa.Pipeline) (string, error) {
	data, err := json.Marshal(pipe)
	if err != nil {
		return "", fmt.Errorf("marshal pipeline: %w", err)
	}
	return string(data), nil
}

// unmarshalPipeline parses stored JSON TEXT back into a pipeline.
func unmarshalPipeline(data string) (aaa.Pipeline, error) {
	if data == "" || data == "null" {
		return nil, nil
	}
	var pipe aaa.Pipeline
	if err := json.Unmarshal([]byte(data), &pipe); err != nil {
		return nil, fmt.Errorf("unmarshal pipeline: %w", err)
	}
	return pipe, nil
}

// marshalAssets serializes a refundable-asset list to JSON TEXT.
func marshalAssets(assets []aaa.Asset) (string, error) {
	if len(assets) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(assets)
	if err != nil {
		return "", fmt.Errorf("marshal assets: %w", err)
	}
	return string(data), nil
}

// unmarshalAssets parses a stored refundable-asset list.
func unmarshalAssets(data string) ([]aaa.Asset, error) {
	if data == "" || data == "[]" || data == "null" {
		return nil, nil
	}
	var assets []aaa.Asset
	if err := json.Unmarshal([]byte(data), &assets); err != nil {
		return nil, fmt.Errorf("unmarshal assets: %w", err)
	}
	return assets, nil
}
