// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authz

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"
)

// LoadRequest reads a gate definition from a JSON or YAML file, chosen by
// extension.
func LoadRequest(path string) (Request, error) {
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return Request{}, fmt.Errorf("path contains directory traversal elements: %s", path)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Request{}, fmt.Errorf("failed to read gate definition: %w", err)
	}
	return DecodeRequest(data, filepath.Ext(cleanPath))
}

// DecodeRequest parses a gate definition in the format named by ext
// (".json", ".yaml", ".yml"). An empty ext means JSON.
func DecodeRequest(data []byte, ext string) (Request, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		jsonData, err := yaml.YAMLToJSON(data)
		if err != nil {
			return Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return ParseRequest(jsonData)
	case ".json", "":
		return ParseRequest(data)
	default:
		return Request{}, fmt.Errorf("unsupported file format: %s (supported formats: .json, .yaml, .yml)", ext)
	}
}
