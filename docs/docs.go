// Package docs registers the OpenAPI description served at /swagger/*.
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth-signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new account",
                "parameters": [
                    {"description": "Signup details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/auth-login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/generate-api-key": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["keys"],
                "summary": "Issue or rotate the API key",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.apiKeyResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/simulate-usage": {
            "post": {
                "produces": ["application/json"],
                "tags": ["usage"],
                "summary": "Metered call",
                "parameters": [
                    {"type": "string", "description": "API key", "name": "x-api-key", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.usageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "402": {"description": "Payment Required", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "429": {"description": "Too Many Requests", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/admin-update-credits": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Adjust an account's credits",
                "parameters": [
                    {"type": "string", "description": "Operator secret", "name": "x-admin-key", "in": "header", "required": true},
                    {"description": "Target email and signed delta", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.adjustCreditsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.adjustCreditsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/get-dashboard-data": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Dashboard data",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.dashboardResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/usage-series": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Daily usage series",
                "parameters": [
                    {"type": "integer", "description": "Window length in days (1-365, default 30)", "name": "days", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.usageSeriesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.DashboardProfile": {
            "type": "object",
            "properties": {
                "apiKey": {"type": "string"},
                "company": {"type": "string"},
                "credits": {"type": "integer"},
                "email": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "domain.Profile": {
            "type": "object",
            "properties": {
                "company": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "domain.UsageBucket": {
            "type": "object",
            "properties": {
                "apiCalls": {"type": "integer"},
                "credits": {"type": "integer"},
                "date": {"type": "string"}
            }
        },
        "domain.UsageLogEntry": {
            "type": "object",
            "properties": {
                "cost": {"type": "integer"},
                "endpoint": {"type": "string"},
                "id": {"type": "string"},
                "timestamp": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "handler.adjustCreditsRequest": {
            "type": "object",
            "properties": {
                "credits": {"type": "number"},
                "email": {"type": "string"}
            }
        },
        "handler.adjustCreditsResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "user": {"$ref": "#/definitions/handler.adjustedUser"}
            }
        },
        "handler.adjustedUser": {
            "type": "object",
            "properties": {
                "credits": {"type": "integer"},
                "email": {"type": "string"}
            }
        },
        "handler.apiKeyResponse": {
            "type": "object",
            "properties": {
                "apiKey": {"type": "string"}
            }
        },
        "handler.authResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.Profile"}
            }
        },
        "handler.dashboardResponse": {
            "type": "object",
            "properties": {
                "usageLogs": {"type": "array", "items": {"$ref": "#/definitions/domain.UsageLogEntry"}},
                "user": {"$ref": "#/definitions/domain.DashboardProfile"}
            }
        },
        "handler.dependencyStatus": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "dependencies": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handler.dependencyStatus"}},
                "status": {"type": "string"}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "properties": {
                "company": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string", "maxLength": 72}
            }
        },
        "handler.usageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "remaining_credits": {"type": "integer"},
                "success": {"type": "boolean"}
            }
        },
        "handler.usageSeriesResponse": {
            "type": "object",
            "properties": {
                "buckets": {"type": "array", "items": {"$ref": "#/definitions/domain.UsageBucket"}},
                "days": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Credit Gateway API",
	Description:      "Credit-metered API access: accounts, API keys, metered calls and admin credit adjustments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
