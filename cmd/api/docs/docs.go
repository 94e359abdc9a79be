// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o cmd/api/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/sessions": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Create a quiz session",
                "parameters": [{"description": "Session definition", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateSessionRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Get a quiz session",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/outcome": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Get the outcome of a finished session",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.OutcomeResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/start": {"post": {"security": [{"ApiKeyAuth": []}], "tags": ["sessions"], "summary": "Start a pending session", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}}}}},
        "/sessions/{id}/answers": {"put": {"security": [{"ApiKeyAuth": []}], "tags": ["sessions"], "summary": "Record several answers at once", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RecordAnswersRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AnswersResponse"}}}}},
        "/sessions/{id}/answers/{questionId}": {"put": {"security": [{"ApiKeyAuth": []}], "tags": ["sessions"], "summary": "Record or change the answer to one question", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "questionId", "in": "path", "required": true}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RecordAnswerRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AnswersResponse"}}}}},
        "/sessions/{id}/pause": {"post": {"security": [{"ApiKeyAuth": []}], "tags": ["sessions"], "summary": "Pause an in-progress session", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.PauseRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}}}}},
        "/sessions/{id}/resume": {"post": {"security": [{"ApiKeyAuth": []}], "tags": ["sessions"], "summary": "Resume a paused session", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}}}}},
        "/sessions/{id}/finish": {"post": {"security": [{"ApiKeyAuth": []}], "tags": ["sessions"], "summary": "Finish and score a session", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}}}}},
        "/sessions/{id}/expire": {"post": {"security": [{"ApiKeyAuth": []}], "tags": ["sessions"], "summary": "Expire a session whose time ran out", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}}}}},
        "/sessions/{id}/analysis": {"post": {"security": [{"ApiKeyAuth": []}], "tags": ["sessions"], "summary": "Run the analysis for a finished session", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AnalysisResponse"}}}}}
    },
    "definitions": {
        "dto.CreateSessionRequest": {"type": "object"},
        "dto.SessionResponse": {"type": "object"},
        "dto.OutcomeResponse": {"type": "object"},
        "dto.AnalysisResponse": {"type": "object"},
        "dto.AnswersResponse": {"type": "object"},
        "dto.RecordAnswerRequest": {"type": "object", "properties": {"answer": {"type": "string"}}},
        "dto.RecordAnswersRequest": {"type": "object", "properties": {"answers": {"type": "object", "additionalProperties": {"type": "string"}}}},
        "dto.PauseRequest": {"type": "object", "properties": {"reason": {"type": "string", "enum": ["tab-change", "manual"]}}},
        "middleware.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8090",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Quiz Assessment API",
	Description:      "Quiz sessions generated from learning material: answer, score and analyze.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
