// Package docs holds the OpenAPI document served by /swagger/.
// Regenerate with: swag init -g docs/swagger_dispatch.go --instanceName dispatch
package docs

import "github.com/swaggo/swag"

const InstanceName = "dispatch"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/drivers/assignable": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Dispatch"],
                "summary": "Assignable drivers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DirectoryResponse"}},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/trips": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Trips"],
                "summary": "Request a trip",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateTripRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.TripResponse"}},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/trips/requested": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Trips"],
                "summary": "Requested trips",
                "parameters": [
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "name": "page_size", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/trips/{trip_id}/assign": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Dispatch"],
                "summary": "Assign a driver to a trip",
                "parameters": [
                    {"type": "string", "name": "trip_id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AssignDriverRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AssignDriverResponse"}},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/reconciler/sweeps/stuck-busy": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Reconciler"],
                "summary": "Release stuck busy drivers",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/reconciler/sweeps/idle": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Reconciler"],
                "summary": "Take idle drivers offline",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        }
    },
    "definitions": {
        "dto.Location": {
            "type": "object",
            "properties": {"latitude": {"type": "number"}, "longitude": {"type": "number"}}
        },
        "dto.AssignDriverRequest": {
            "type": "object",
            "properties": {"driver_id": {"type": "string"}}
        },
        "dto.AssignDriverResponse": {
            "type": "object",
            "properties": {
                "trip_id": {"type": "string"},
                "driver_id": {"type": "string"},
                "passenger_id": {"type": "string"},
                "status": {"type": "string"},
                "assigned_at": {"type": "string"}
            }
        },
        "dto.CreateTripRequest": {
            "type": "object",
            "properties": {
                "passenger_id": {"type": "string"},
                "origin": {"$ref": "#/definitions/dto.Location"},
                "destination": {"$ref": "#/definitions/dto.Location"}
            }
        },
        "dto.TripResponse": {
            "type": "object",
            "properties": {
                "trip_id": {"type": "string"},
                "status": {"type": "string"},
                "passenger_id": {"type": "string"},
                "driver_id": {"type": "string"},
                "origin": {"$ref": "#/definitions/dto.Location"},
                "destination": {"$ref": "#/definitions/dto.Location"},
                "distance_km": {"type": "number"},
                "fare": {"type": "number"},
                "created_at": {"type": "string"},
                "assigned_at": {"type": "string"}
            }
        },
        "dto.DirectoryEntry": {
            "type": "object",
            "properties": {
                "driver_id": {"type": "string"},
                "name": {"type": "string"},
                "label": {"type": "string"},
                "vehicle_id": {"type": "string"},
                "availability_state": {"type": "string"},
                "last_location": {"$ref": "#/definitions/dto.Location"},
                "last_location_at": {"type": "string"}
            }
        },
        "dto.DirectoryResponse": {
            "type": "object",
            "properties": {
                "assignable": {"type": "array", "items": {"$ref": "#/definitions/dto.DirectoryEntry"}},
                "without_unit": {"type": "array", "items": {"$ref": "#/definitions/dto.DirectoryEntry"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Dispatch Service API",
	Description:      "Dispatch console backend: driver directory by unit label, requested trips, atomic trip assignment and driver lifecycle sweeps.",
	InfoInstanceName: InstanceName,
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
