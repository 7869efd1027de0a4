// Package docs registers the Swagger document served under /docs.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["info"],
                "summary": "Greeting with instance identity",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/api.RootResponse"}
                    },
                    "429": {
                        "description": "Rate limit exceeded (only when RATE_LIMIT_RPS is set)",
                        "schema": {"$ref": "#/definitions/api.ErrorResponse"}
                    }
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/api.HealthResponse"}
                    }
                }
            }
        },
        "/metadata": {
            "get": {
                "produces": ["application/json"],
                "tags": ["info"],
                "summary": "Instance metadata",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/api.MetadataResponse"}
                    },
                    "429": {
                        "description": "Rate limit exceeded (only when RATE_LIMIT_RPS is set)",
                        "schema": {"$ref": "#/definitions/api.ErrorResponse"}
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "rate limit exceeded"}
            }
        },
        "api.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "timestamp": {"type": "string", "example": "2024-01-01T12:00:00.000Z"}
            }
        },
        "api.MetadataResponse": {
            "type": "object",
            "properties": {
                "environment": {"type": "string", "example": "dev"},
                "instance_id": {"type": "string", "example": "local"},
                "project": {"type": "string", "example": "projeto-vm"},
                "region": {"type": "string", "example": "local"}
            }
        },
        "api.RootResponse": {
            "type": "object",
            "properties": {
                "instance_id": {"type": "string", "example": "local"},
                "message": {"type": "string", "example": "Hello from projeto-vm-dev"},
                "region": {"type": "string", "example": "local"},
                "timestamp": {"type": "string", "example": "2024-01-01T12:00:00.000Z"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "vmprobe API",
	Description:      "Liveness and instance metadata endpoints for infrastructure smoke tests.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
