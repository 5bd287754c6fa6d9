// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authz

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Built-in gate types.
const (
	TypeAuthenticated = "authenticated"
	TypeRealmRole     = "realm_role"
	TypeResourceRole  = "resource_role"
	TypeExpression    = "expression"
)

// RequestFactory builds requests of one gate type from their JSON definition.
type RequestFactory interface {
	// ValidateConfig checks the JSON definition without building a request.
	ValidateConfig(rawConfig json.RawMessage) error

	// CreateRequest builds the request described by rawConfig.
	CreateRequest(rawConfig json.RawMessage) (Request, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]RequestFactory)
)

func init() {
	Register(TypeAuthenticated, authenticatedFactory{})
	Register(TypeRealmRole, realmRoleFactory{})
	Register(TypeResourceRole, resourceRoleFactory{})
	Register(TypeExpression, expressionFactory{})
}

// Register adds a factory for gateType. It panics if the type is taken.
func Register(gateType string, factory RequestFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[gateType]; exists {
		panic(fmt.Sprintf("gate factory already registered for type: %s", gateType))
	}
	registry[gateType] = factory
}

// GetFactory returns the factory for gateType, or nil.
func GetFactory(gateType string) RequestFactory {
	registryMu.RLock()
	defer registryMu.RUnlock()

	return registry[gateType]
}

// IsRegistered reports whether gateType has a factory.
func IsRegistered(gateType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()

	_, exists := registry[gateType]
	return exists
}

// RegisteredTypes returns the registered gate types, sorted.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	return slices.Sorted(maps.Keys(registry))
}

// Definition is the JSON form of a gate request, e.g.
//
//	{"type": "resource_role", "role": "admin", "resource": "csw-config"}
type Definition struct {
	Type       string `json:"type"`
	Role       string `json:"role,omitempty"`
	Resource   string `json:"resource,omitempty"`
	Expression string `json:"expression,omitempty"`
}

// ParseRequest builds a request from its JSON definition using the factory
// registered for its type.
func ParseRequest(data []byte) (Request, error) {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if header.Type == "" {
		return Request{}, fmt.Errorf("%w: type is required", ErrInvalidRequest)
	}

	factory := GetFactory(header.Type)
	if factory == nil {
		return Request{}, fmt.Errorf("%w: %s (registered types: %v)", ErrUnknownType, header.Type, RegisteredTypes())
	}
	if err := factory.ValidateConfig(data); err != nil {
		return Request{}, fmt.Errorf("invalid %s gate: %w", header.Type, err)
	}
	return factory.CreateRequest(data)
}

func decodeDefinition(raw json.RawMessage) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return def, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return def, nil
}

type authenticatedFactory struct{}

func (authenticatedFactory) ValidateConfig(raw json.RawMessage) error {
	_, err := decodeDefinition(raw)
	return err
}

func (authenticatedFactory) CreateRequest(json.RawMessage) (Request, error) {
	return AuthenticationOnly(), nil
}

type realmRoleFactory struct{}

func (realmRoleFactory) ValidateConfig(raw json.RawMessage) error {
	def, err := decodeDefinition(raw)
	if err != nil {
		return err
	}
	if def.Role == "" {
		return fmt.Errorf("%w: role is required", ErrInvalidRequest)
	}
	return nil
}

func (f realmRoleFactory) CreateRequest(raw json.RawMessage) (Request, error) {
	if err := f.ValidateConfig(raw); err != nil {
		return Request{}, err
	}
	def, _ := decodeDefinition(raw)
	return RealmRole(def.Role), nil
}

type resourceRoleFactory struct{}

func (resourceRoleFactory) ValidateConfig(raw json.RawMessage) error {
	def, err := decodeDefinition(raw)
	if err != nil {
		return err
	}
	if def.Role == "" {
		return fmt.Errorf("%w: role is required", ErrInvalidRequest)
	}
	return nil
}

func (f resourceRoleFactory) CreateRequest(raw json.RawMessage) (Request, error) {
	if err := f.ValidateConfig(raw); err != nil {
		return Request{}, err
	}
	def, _ := decodeDefinition(raw)
	return ResourceRole(def.Role, def.Resource), nil
}

type expressionFactory struct{}

func (expressionFactory) ValidateConfig(raw json.RawMessage) error {
	def, err := decodeDefinition(raw)
	if err != nil {
		return err
	}
	_, err = CompileExpression(def.Expression)
	return err
}

func (expressionFactory) CreateRequest(raw json.RawMessage) (Request, error) {
	def, err := decodeDefinition(raw)
	if err != nil {
		return Request{}, err
	}
	return ExpressionRequest(def.Expression)
}

// Definition returns the JSON form of r.
func (r Request) Definition() Definition {
	def := Definition{Type: r.kind.String(), Role: r.role, Resource: r.resource}
	if r.expr != nil {
		def.Expression = r.expr.Source()
	}
	return def
}

// MarshalJSON encodes r as its Definition.
func (r Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Definition())
}
