// Package auth holds the OpenAPI document served at /swagger/.
//
// Regenerate from the handler annotations with:
//
//	swag init -g internal/auth/http/router.go -o api/auth
package auth

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/memoauth"
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
        "/v1/auth/login": {
            "post": {
                "description": "Exchanges an email and password for an access and refresh token pair.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/authsdk.TokenPair"}},
                    "400": {"description": "Malformed body", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/v1/auth/refresh": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Consumes the refresh token in the Authorization header and returns a new pair. Each refresh token works once.",
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Rotate the refresh token",
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/authsdk.TokenPair"}},
                    "401": {"description": "Invalid, expired or reused refresh token", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/v1/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Revokes the session the refresh token belongs to.",
                "tags": ["Auth"],
                "summary": "Log out",
                "responses": {
                    "204": {"description": "Logged out"},
                    "401": {"description": "Invalid refresh token", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/v1/auth/logout-all": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Revokes every session of the account the refresh token belongs to.",
                "tags": ["Auth"],
                "summary": "Log out everywhere",
                "responses": {
                    "204": {"description": "Logged out"},
                    "401": {"description": "Invalid refresh token", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/v1/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Current identity",
                "responses": {
                    "200": {"description": "Identity", "schema": {"$ref": "#/definitions/authsdk.MeResponse"}},
                    "401": {"description": "Invalid access token", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/v1/auth/sessions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Active sessions of the caller",
                "responses": {
                    "200": {"description": "Sessions, newest first", "schema": {"type": "array", "items": {"$ref": "#/definitions/authsdk.SessionInfo"}}},
                    "401": {"description": "Invalid access token", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/v1/admin/users/{id}/sessions": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Revoke every session of a user",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Number of sessions revoked", "schema": {"$ref": "#/definitions/authsdk.RevokeResponse"}},
                    "401": {"description": "Invalid access token", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "403": {"description": "Caller is not an ADMIN", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}},
                    "503": {"description": "Database unreachable", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "authsdk.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "authsdk.TokenPair": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"}
            }
        },
        "authsdk.MeResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["USER", "ADMIN"]}
            }
        },
        "authsdk.SessionInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "expiresAt": {"type": "string", "format": "date-time"}
            }
        },
        "authsdk.RevokeResponse": {
            "type": "object",
            "properties": {
                "revoked": {"type": "integer"}
            }
        },
        "authsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"},
                "checks": {
                    "type": "object",
                    "properties": {"database": {"type": "string"}}
                }
            }
        },
        "httpx.Envelope": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "data": {},
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"}
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT access or refresh token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "memoauth Authentication Service API",
	Description:      "Email and password login issuing HS256 access and refresh tokens. Refresh tokens are single use and rotate on every refresh.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
