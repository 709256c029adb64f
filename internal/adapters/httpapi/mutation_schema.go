package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

// mutationSchemaJSON describes the body of POST /v1/mutations. create and
// update must carry the resulting entity; delete may omit it.
const mutationSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["model", "action"],
  "additionalProperties": false,
  "properties": {
    "model":  {"type": "string", "minLength": 1, "maxLength": 255},
    "action": {"enum": ["create", "update", "delete"]},
    "result": {"type": ["object", "null"]},
    "actor": {
      "type": ["object", "null"],
      "additionalProperties": true,
      "properties": {
        "firstname": {"type": ["string", "null"]},
        "lastname":  {"type": ["string", "null"]}
      }
    }
  },
  "if": {"properties": {"action": {"enum": ["create", "update"]}}},
  "then": {"required": ["result"], "properties": {"result": {"type": "object"}}}
}`

var mutationSchema = mustCompileSchema(mutationSchemaJSON)

func mustCompileSchema(doc string) *santhosh.Schema {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource("mutation.json", strings.NewReader(doc)); err != nil {
		panic(fmt.Sprintf("add mutation schema: %v", err))
	}
	sch, err := compiler.Compile("mutation.json")
	if err != nil {
		panic(fmt.Sprintf("compile mutation schema: %v", err))
	}
	return sch
}

type mutationRequest struct {
	Model  string         `json:"model"`
	Action string         `json:"action"`
	Result map[string]any `json:"result"`
	Actor  *actorPayload  `json:"actor"`
}

type actorPayload struct {
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
}

// schemaViolationError lists the reasons a mutation body was rejected.
type schemaViolationError struct {
	Errors []string
}

func (e *schemaViolationError) Error() string {
	return "mutation does not match schema: " + strings.Join(e.Errors, "; ")
}

// decodeMutation validates body against the mutation schema and converts it
// to a MutationEvent. When no actor is given the creator embedded in the
// entity state is used.
func decodeMutation(body []byte) (domain.MutationEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: invalid json body", domain.ErrInvalidRequest)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: invalid json body", domain.ErrInvalidRequest)
	}
	if err := mutationSchema.Validate(doc); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return nil, &schemaViolationError{Errors: collectValidationErrors(ve)}
		}
		return nil, &schemaViolationError{Errors: []string{err.Error()}}
	}

	var req mutationRequest
	dec = json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid json body", domain.ErrInvalidRequest)
	}

	action, err := domain.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}
	actor := req.Actor.toDomain()
	if actor == nil {
		actor = domain.ActorFromState(req.Result)
	}
	return domain.NewMutationEvent(action, req.Model, req.Result, actor)
}

func (a *actorPayload) toDomain() *domain.Actor {
	if a == nil {
		return nil
	}
	actor := &domain.Actor{}
	if a.FirstName != nil {
		actor.FirstName = *a.FirstName
	}
	if a.LastName != nil {
		actor.LastName = *a.LastName
	}
	return actor
}

func collectValidationErrors(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectValidationErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}
