// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package httpapi

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/opendiary/opendiary/internal/auth"
	"github.com/opendiary/opendiary/internal/envelope"
)

// SchemaBaseID prefixes the $id of every generated schema.
const SchemaBaseID = "https://opendiary.dev/schemas/"

// RegisterRequest is the body of POST /student/register.
type RegisterRequest struct {
	Username   string  `json:"username" jsonschema:"description=Unique login name"`
	Name       string  `json:"name"`
	Surname    string  `json:"surname"`
	Patronymic *string `json:"patronymic,omitempty"`
	Email      string  `json:"email" jsonschema:"description=Unique contact address"`
	Password   string  `json:"password,omitempty"`
}

// LoginRequest is the body of POST /student/login. Exactly one of UUID or
// Username identifies the account; UUID wins when both are present.
type LoginRequest struct {
	UUID     *uuid.UUID `json:"uuid,omitempty"`
	Username string     `json:"username,omitempty"`
	Password string     `json:"password"`
}

// SessionRequest is the body of POST /student/session. An absent or null
// ssid decodes as "" and validates as InvalidSession.
type SessionRequest struct {
	SSID string `json:"ssid,omitempty" jsonschema:"nullable"`
}

// LogoutRequest is the body of POST /student/logout.
type LogoutRequest struct {
	SSID string    `json:"ssid,omitempty" jsonschema:"nullable"`
	UUID uuid.UUID `json:"uuid"`
}

// StudentIDResponse is returned by register and get_id.
type StudentIDResponse struct {
	StudentID uuid.UUID `json:"student_id"`
}

// LoginResponse is returned by login.
type LoginResponse struct {
	SessionID string    `json:"session_id"`
	StudentID uuid.UUID `json:"student_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionResponse is returned by session validation.
type SessionResponse struct {
	AuthResult auth.AuthResult `json:"auth_result"`
}

// LogoutResponse is returned by logout. StudentID and DropSuccess are present
// only when AuthResult is Success.
type LogoutResponse struct {
	AuthResult  auth.AuthResult `json:"auth_result"`
	StudentID   *uuid.UUID      `json:"student_id,omitempty"`
	DropSuccess *bool           `json:"drop_success,omitempty"`
}

// schemaTypes names every wire type with a published schema.
var schemaTypes = map[string]any{
	"register.request":    &RegisterRequest{},
	"login.request":       &LoginRequest{},
	"session.request":     &SessionRequest{},
	"logout.request":      &LogoutRequest{},
	"student_id.response": &StudentIDResponse{},
	"login.response":      &LoginResponse{},
	"session.response":    &SessionResponse{},
	"logout.response":     &LogoutResponse{},
}

var (
	uuidType       = reflect.TypeOf(uuid.UUID{})
	authResultType = reflect.TypeOf(auth.AuthResult(0))
)

// mapWireType describes types whose JSON form differs from their Go shape.
func mapWireType(t reflect.Type) *jsonschema.Schema {
	switch t {
	case uuidType:
		return &jsonschema.Schema{Type: "string", Format: "uuid"}
	case authResultType:
		return &jsonschema.Schema{
			Type: "string",
			Enum: []any{
				auth.AuthSuccess.String(),
				auth.AuthSessionExpired.String(),
				auth.AuthInvalidSession.String(),
			},
		}
	}
	return nil
}

// SchemaNames lists the published schema names in stable order.
func SchemaNames() []string {
	names := make([]string, 0, len(schemaTypes))
	for name := range schemaTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenerateSchema renders the JSON Schema for a published wire type.
func GenerateSchema(name string) ([]byte, error) {
	v, ok := schemaTypes[name]
	if !ok {
		return nil, oops.Code("SCHEMA_UNKNOWN").With("name", name).Errorf("no schema named %q", name)
	}

	r := jsonschema.Reflector{
		DoNotReference: true,
		Mapper:         mapWireType,
	}
	schema := r.Reflect(v)
	schema.ID = jsonschema.ID(SchemaBaseID + name + ".json")
	schema.Title = "OpenDiary " + strings.ReplaceAll(name, ".", " ")

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.In(envelope.DomainSerialization).
			Code("SCHEMA_ENCODE_FAILED").
			With("name", name).
			Wrap(err)
	}
	return data, nil
}

// compileSchemas compiles every request schema for body validation.
func compileSchemas() (map[string]*jschema.Schema, error) {
	c := jschema.NewCompiler()
	c.AssertFormat()

	compiled := make(map[string]*jschema.Schema)
	for _, name := range SchemaNames() {
		if !strings.HasSuffix(name, ".request") {
			continue
		}
		data, err := GenerateSchema(name)
		if err != nil {
			return nil, err
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, oops.In(envelope.DomainSerialization).
				Code("SCHEMA_PARSE_FAILED").
				With("name", name).
				Wrap(err)
		}
		url := SchemaBaseID + name + ".json"
		if err := c.AddResource(url, doc); err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("name", name).Wrap(err)
		}
		sch, err := c.Compile(url)
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("name", name).Wrap(err)
		}
		compiled[name] = sch
	}
	return compiled, nil
}
