// Package access holds the OpenAPI document for the access service, registered
// with swag and served under /swagger/. It is kept in step with the handler
// annotations in internal/access/http.
package access

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
        "/livez": {
            "get": {
                "description": "Always 200 while the process is serving.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Health"
                ],
                "summary": "Liveness Probe",
                "responses": {
                    "200": {
                        "description": "status, uptime, version",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.HealthResponse"
                        }
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Reports the database connection and whether identity provider keys are loaded.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Health"
                ],
                "summary": "Readiness Probe",
                "responses": {
                    "200": {
                        "description": "status, uptime, version, checks",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "status, uptime, version, checks - service not ready",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.HealthResponse"
                        }
                    }
                }
            }
        },
        "/v1/invitations": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Invite an email address into an organization with a role.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Invitations"
                ],
                "summary": "Create Invitation",
                "parameters": [
                    {
                        "description": "Invitation request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/accesssdk.CreateInvitationRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.CreateInvitationResponse"
                        }
                    },
                    "400": {
                        "description": "error, error_description, details",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/invitations/lookup": {
            "get": {
                "description": "Describes the invitation behind a token. Accepted and expired invitations answer 410, unknown tokens 404.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Invitations"
                ],
                "summary": "Look Up Invitation",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Invitation token",
                        "name": "token",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.InvitationResponse"
                        }
                    },
                    "400": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "410": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/invitations/accept": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Accepts the invitation for the authenticated subject and provisions its membership.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Invitations"
                ],
                "summary": "Accept Invitation",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Invitation token",
                        "name": "token",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.AcceptInvitationResponse"
                        }
                    },
                    "400": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "410": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/invitations/decline": {
            "post": {
                "description": "Expires the invitation behind a token.",
                "tags": [
                    "Invitations"
                ],
                "summary": "Decline Invitation",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Invitation token",
                        "name": "token",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "400": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/invitations/{id}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Invitations"
                ],
                "summary": "Get Invitation",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Invitation id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.InvitationResponse"
                        }
                    },
                    "401": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Removes the invitation record outright, whatever its status.",
                "tags": [
                    "Invitations"
                ],
                "summary": "Delete Invitation",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Invitation id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "401": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/invitations/{id}/expire": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Expires a pending invitation.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Invitations"
                ],
                "summary": "Revoke Invitation",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Invitation id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.InvitationResponse"
                        }
                    },
                    "401": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/organizations/{orgID}/invitations": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "All invitations of an organization, oldest first.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Invitations"
                ],
                "summary": "List Invitations",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Organization id",
                        "name": "orgID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.InvitationListResponse"
                        }
                    },
                    "400": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/me": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "The caller's membership with the permissions and dashboard categories its role grants.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Identity"
                ],
                "summary": "Current Identity",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.MeResponse"
                        }
                    },
                    "401": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/dashboards/categories": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Identity"
                ],
                "summary": "Dashboard Categories",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.CategoriesResponse"
                        }
                    },
                    "401": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/roles": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Every role with its permissions and dashboard categories.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Identity"
                ],
                "summary": "Role Table",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.RolesResponse"
                        }
                    },
                    "401": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error, error_description",
                        "schema": {
                            "$ref": "#/definitions/accesssdk.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "accesssdk.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "error_description": {
                    "type": "string"
                },
                "details": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                }
            }
        },
        "accesssdk.CreateInvitationRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "organization_id": {
                    "type": "integer"
                },
                "role": {
                    "type": "string"
                },
                "position": {
                    "type": "string"
                }
            }
        },
        "accesssdk.InvitationResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "organization_id": {
                    "type": "integer"
                },
                "email": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                },
                "position": {
                    "type": "string"
                },
                "invited_by": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "expires_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "accepted_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "accesssdk.CreateInvitationResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "organization_id": {
                    "type": "integer"
                },
                "email": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                },
                "position": {
                    "type": "string"
                },
                "invited_by": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "expires_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "accepted_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "token": {
                    "type": "string"
                },
                "accept_url": {
                    "type": "string"
                }
            }
        },
        "accesssdk.InvitationListResponse": {
            "type": "object",
            "properties": {
                "invitations": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/accesssdk.InvitationResponse"
                    }
                }
            }
        },
        "accesssdk.AcceptInvitationResponse": {
            "type": "object",
            "properties": {
                "invitation": {
                    "$ref": "#/definitions/accesssdk.InvitationResponse"
                },
                "member": {
                    "$ref": "#/definitions/accesssdk.MeResponse"
                }
            }
        },
        "accesssdk.MeResponse": {
            "type": "object",
            "properties": {
                "user_id": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                },
                "organization_id": {
                    "type": "integer"
                },
                "position": {
                    "type": "string"
                },
                "permissions": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "categories": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "accesssdk.CategoriesResponse": {
            "type": "object",
            "properties": {
                "categories": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "accesssdk.RoleDefinition": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "permissions": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "categories": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "accesssdk.RolesResponse": {
            "type": "object",
            "properties": {
                "roles": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/accesssdk.RoleDefinition"
                    }
                }
            }
        },
        "accesssdk.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {
                    "type": "string"
                },
                "keys": {
                    "type": "string"
                }
            }
        },
        "accesssdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "uptime": {
                    "type": "string"
                },
                "version": {
                    "type": "string"
                },
                "checks": {
                    "$ref": "#/definitions/accesssdk.HealthChecks"
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Identity provider access token. Format: \"Bearer {token}\".",
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
	Title:            "FinMark Access Service API",
	Description:      "Organization invitations, role based permissions and dashboard category visibility for the FinMark dashboard.\n\nCallers authenticate with an identity provider access token. Role and organization always come from the service's own membership records.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
