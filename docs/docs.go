// Package docs holds the OpenAPI description of the HTTP API, in the layout
// swag init writes. Regenerate with go generate ./cmd/server.
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
        "/api/v1/contracts/analyze": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Report risky clauses with a 1-10 risk score. Accepts JSON or form text/url, or a multipart file (PDF, DOCX, TXT)",
                "consumes": [
                    "application/json",
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json",
                    "text/csv"
                ],
                "tags": [
                    "contracts"
                ],
                "summary": "Analyze a contract",
                "parameters": [
                    {
                        "description": "Contract text or URL",
                        "name": "request",
                        "in": "body",
                        "schema": {
                            "$ref": "#/definitions/handler.ContractRequest"
                        }
                    },
                    {
                        "type": "file",
                        "description": "Contract file (PDF, DOCX or TXT)",
                        "name": "file",
                        "in": "formData"
                    },
                    {
                        "enum": [
                            "json",
                            "csv",
                            "xlsx"
                        ],
                        "type": "string",
                        "default": "json",
                        "description": "Response format",
                        "name": "format",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Findings, with warnings for degraded segments",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/domain.AnalysisResult"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "No input, text too short or unsupported file",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    },
                    "413": {
                        "description": "File too large",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    },
                    "422": {
                        "description": "No text could be extracted from the source",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    },
                    "502": {
                        "description": "Every segment failed",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.FailedRunResponseBody"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/domain.AnalysisResult"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/v1/contracts/humanize": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Rewrite a contract in plain language with up to five key points",
                "consumes": [
                    "application/json",
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "contracts"
                ],
                "summary": "Humanize a contract",
                "parameters": [
                    {
                        "description": "Contract text or URL",
                        "name": "request",
                        "in": "body",
                        "schema": {
                            "$ref": "#/definitions/handler.ContractRequest"
                        }
                    },
                    {
                        "type": "file",
                        "description": "Contract file (PDF, DOCX or TXT)",
                        "name": "file",
                        "in": "formData"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Plain-language rewrite",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/domain.HumanizeResult"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "No input, text too short or unsupported file",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    },
                    "413": {
                        "description": "File too large",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    },
                    "422": {
                        "description": "No text could be extracted from the source",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    },
                    "502": {
                        "description": "Every segment failed",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.FailedRunResponseBody"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/domain.HumanizeResult"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/v1/runs": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "List stored runs, newest first",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "runs"
                ],
                "summary": "List runs",
                "parameters": [
                    {
                        "enum": [
                            "analyze",
                            "humanize"
                        ],
                        "type": "string",
                        "description": "Filter by mode",
                        "name": "mode",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "default": 0,
                        "description": "Offset for pagination",
                        "name": "offset",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "default": 20,
                        "description": "Limit for pagination (max 100)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Runs",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/domain.Run"
                                            }
                                        },
                                        "meta": {
                                            "$ref": "#/definitions/handler.PagMeta"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid mode",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    }
                }
            }
        },
        "/api/v1/runs/{id}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Get a stored run, with a temporary download link for an archived upload",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "runs"
                ],
                "summary": "Get run by ID",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Run ID (UUID)",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Run details",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/service.RunDetail"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid ID",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    },
                    "404": {
                        "description": "Run not found",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponseBody"
                        }
                    }
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Liveness check",
                "responses": {
                    "200": {
                        "description": "Process is up",
                        "schema": {
                            "$ref": "#/definitions/handler.HealthResponse"
                        }
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Reports the configured providers; 503 when none is available",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready",
                        "schema": {
                            "$ref": "#/definitions/handler.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "No provider configured",
                        "schema": {
                            "$ref": "#/definitions/handler.HealthResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "domain.Finding": {
            "type": "object",
            "properties": {
                "clause_text": {
                    "type": "string"
                },
                "risk_score": {
                    "type": "integer",
                    "maximum": 10,
                    "minimum": 1
                },
                "explanation": {
                    "type": "string"
                },
                "recommendation": {
                    "type": "string"
                }
            }
        },
        "domain.AnalysisResult": {
            "type": "object",
            "properties": {
                "run_id": {
                    "type": "string"
                },
                "analysis": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.Finding"
                    }
                },
                "warnings": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "error": {
                    "type": "string"
                }
            }
        },
        "domain.HumanizeResult": {
            "type": "object",
            "properties": {
                "run_id": {
                    "type": "string"
                },
                "original_length": {
                    "type": "integer"
                },
                "simplified_length": {
                    "type": "integer"
                },
                "humanized_text": {
                    "type": "string"
                },
                "key_points": {
                    "type": "array",
                    "maxItems": 5,
                    "items": {
                        "type": "string"
                    }
                },
                "warnings": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "error": {
                    "type": "string"
                }
            }
        },
        "domain.Mode": {
            "type": "string",
            "enum": [
                "analyze",
                "humanize"
            ],
            "x-enum-varnames": [
                "ModeAnalyze",
                "ModeHumanize"
            ]
        },
        "domain.SourceKind": {
            "type": "string",
            "enum": [
                "text",
                "url",
                "file"
            ],
            "x-enum-varnames": [
                "SourceText",
                "SourceURL",
                "SourceFile"
            ]
        },
        "domain.Run": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "mode": {
                    "$ref": "#/definitions/domain.Mode"
                },
                "source": {
                    "$ref": "#/definitions/domain.SourceKind"
                },
                "source_ref": {
                    "type": "string"
                },
                "chars": {
                    "type": "integer"
                },
                "failed": {
                    "type": "boolean"
                },
                "result": {
                    "type": "object"
                },
                "created_at": {
                    "type": "string"
                }
            }
        },
        "service.RunDetail": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "mode": {
                    "$ref": "#/definitions/domain.Mode"
                },
                "source": {
                    "$ref": "#/definitions/domain.SourceKind"
                },
                "source_ref": {
                    "type": "string"
                },
                "chars": {
                    "type": "integer"
                },
                "failed": {
                    "type": "boolean"
                },
                "result": {
                    "type": "object"
                },
                "created_at": {
                    "type": "string"
                },
                "archive_url": {
                    "type": "string"
                }
            }
        },
        "handler.APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "handler.PagMeta": {
            "type": "object",
            "properties": {
                "limit": {
                    "type": "integer"
                },
                "offset": {
                    "type": "integer"
                },
                "total": {
                    "type": "integer"
                }
            }
        },
        "handler.ContractRequest": {
            "type": "object",
            "properties": {
                "text": {
                    "type": "string",
                    "example": "The Supplier may terminate this Agreement at any time without notice."
                },
                "url": {
                    "type": "string",
                    "example": "https://example.com/terms"
                }
            }
        },
        "handler.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string",
                    "example": "ok"
                },
                "providers": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    },
                    "example": [
                        "analyze:openrouter",
                        "humanize:openrouter"
                    ]
                },
                "error": {
                    "type": "string"
                }
            }
        },
        "handler.Response": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean",
                    "example": true
                },
                "data": {},
                "meta": {
                    "$ref": "#/definitions/handler.PagMeta"
                }
            }
        },
        "handler.ErrorResponseBody": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean",
                    "example": false
                },
                "error": {
                    "$ref": "#/definitions/handler.APIError"
                }
            }
        },
        "handler.FailedRunResponseBody": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean",
                    "example": false
                },
                "data": {},
                "error": {
                    "$ref": "#/definitions/handler.APIError"
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token: \"Bearer <jwt>\"",
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
	Title:            "contractlens API",
	Description:      "Finds risky clauses in contracts and rewrites contracts in plain language.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
