// Package docs registers the OpenAPI document served under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Show the status of server",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/login": {
            "post": {
                "description": "Verifies credentials, starts a new session and sets the access and refresh cookies.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TokenPair"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "description": "Exchanges the refresh token (cookie or body) for a new access and refresh token. Any 401 means the client must log in again.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Rotate the refresh token",
                "parameters": [
                    {"description": "Refresh token for clients without cookies", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/model.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TokenPair"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "description": "Revokes the session of the presented refresh token and clears both cookies.",
                "tags": ["auth"],
                "summary": "Log out",
                "parameters": [
                    {"description": "Refresh token for clients without cookies", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/model.RefreshRequest"}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/sessions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns one entry per live login of the caller.",
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "List active sessions",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Session"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Logs the caller out everywhere.",
                "tags": ["sessions"],
                "summary": "Revoke all sessions",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/sessions/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Ends the session and every token rotated from it. Sessions of other users are reported as not found.",
                "tags": ["sessions"],
                "summary": "Revoke a session",
                "parameters": [
                    {"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        }
    },
    "definitions": {
        "common.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "reason": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "model.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "maxLength": 254},
                "password": {"type": "string", "maxLength": 72}
            }
        },
        "model.RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "model.UserSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "condo_id": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string"},
                "unit": {"type": "string"}
            }
        },
        "model.TokenPair": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"},
                "refresh_token": {"type": "string"},
                "user": {"$ref": "#/definitions/model.UserSummary"}
            }
        },
        "model.Session": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "family_id": {"type": "string"},
                "device_info": {"type": "string"},
                "ip_address": {"type": "string"},
                "created_at": {"type": "string"},
                "last_used_at": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Maison Auth API",
	Description:      "Credential, token and session lifecycle for the Maison condominium platform.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
