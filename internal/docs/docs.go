// Package docs регистрирует swagger-описание API для /swagger/.
// Аннотации хендлеров (@Summary, @Router ...), источник для swag init.
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
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"Bearer": []}],
    "paths": {
        "/v1/healthz": {"get": {"tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}},
        "/v1/readyz": {"get": {"tags": ["health"], "summary": "Readiness probe", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}},
        "/v1/session": {
            "post": {"tags": ["session"], "summary": "Open session", "consumes": ["application/json"], "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/session.createRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}},
            "delete": {"tags": ["session"], "summary": "Close session", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}
        },
        "/v1/books": {"get": {"tags": ["books"], "summary": "Available books", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}},
        "/v1/books/{book}/pages": {"get": {"tags": ["books"], "summary": "Pages of a book", "parameters": [{"$ref": "#/parameters/book"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}},
        "/v1/books/{book}/pages/{page}": {"get": {"tags": ["books"], "summary": "Page content", "parameters": [{"$ref": "#/parameters/book"}, {"$ref": "#/parameters/page"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}},
        "/v1/books/{book}/pages/{page}/resources": {
            "get": {"tags": ["resources"], "summary": "Display resources of a page", "parameters": [{"$ref": "#/parameters/book"}, {"$ref": "#/parameters/page"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}},
            "post": {"tags": ["resources"], "summary": "Add custom resource", "consumes": ["application/json", "multipart/form-data"], "parameters": [{"$ref": "#/parameters/book"}, {"$ref": "#/parameters/page"}, {"in": "formData", "name": "meta", "type": "string"}, {"in": "formData", "name": "file", "type": "file"}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}
        },
        "/v1/books/{book}/pages/{page}/order": {"put": {"tags": ["resources"], "summary": "Reorder page resources", "parameters": [{"$ref": "#/parameters/book"}, {"$ref": "#/parameters/page"}, {"in": "body", "name": "request", "required": true, "schema": {"type": "object", "properties": {"ids": {"type": "array", "items": {"type": "string"}}}}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}},
        "/v1/resources/{id}": {
            "put": {"tags": ["resources"], "summary": "Edit resource", "consumes": ["application/json", "multipart/form-data"], "parameters": [{"$ref": "#/parameters/id"}, {"in": "formData", "name": "meta", "type": "string"}, {"in": "formData", "name": "file", "type": "file"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}},
            "delete": {"tags": ["resources"], "summary": "Delete resource", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}
        },
        "/v1/blobs/{handle}": {"get": {"tags": ["blobs"], "summary": "Resource file by handle", "security": [], "produces": ["application/octet-stream"], "parameters": [{"in": "path", "name": "handle", "required": true, "type": "string"}, {"in": "header", "name": "Range", "type": "string"}], "responses": {"200": {"description": "OK", "schema": {"type": "file"}}, "206": {"description": "Partial Content", "schema": {"type": "file"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}},
        "/v1/viewer/page": {"put": {"tags": ["viewer"], "summary": "Open page in viewer", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"type": "object", "properties": {"book": {"type": "string"}, "page": {"type": "integer"}}}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}},
        "/v1/viewer/annotations": {
            "get": {"tags": ["viewer"], "summary": "Annotation state of the open page", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}},
            "delete": {"tags": ["viewer"], "summary": "Clear annotations of the open page", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}
        },
        "/v1/viewer/strokes": {"post": {"tags": ["viewer"], "summary": "Finish stroke", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/viewer.strokeRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}},
        "/v1/viewer/notes": {"post": {"tags": ["viewer"], "summary": "Create text note", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"type": "object", "properties": {"x": {"type": "number"}, "y": {"type": "number"}, "color": {"type": "string"}}}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}},
        "/v1/viewer/notes/{id}": {
            "patch": {"tags": ["viewer"], "summary": "Change note text", "parameters": [{"$ref": "#/parameters/id"}, {"in": "body", "name": "request", "required": true, "schema": {"type": "object", "properties": {"text": {"type": "string"}}}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}},
            "delete": {"tags": ["viewer"], "summary": "Delete note", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}
        },
        "/v1/viewer/layer": {"get": {"tags": ["viewer"], "summary": "Rendered stroke layer", "produces": ["image/png", "image/webp"], "parameters": [{"in": "query", "name": "width", "required": true, "type": "number"}, {"in": "query", "name": "height", "required": true, "type": "number"}, {"in": "query", "name": "rotation", "type": "integer", "enum": [0, 90, 180, 270]}, {"in": "query", "name": "format", "type": "string", "enum": ["png", "webp"]}], "responses": {"200": {"description": "OK", "schema": {"type": "file"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}}}}
    },
    "parameters": {
        "book": {"in": "path", "name": "book", "required": true, "type": "string", "enum": ["Studio", "Companion", "FHB"]},
        "page": {"in": "path", "name": "page", "required": true, "type": "integer"},
        "id": {"in": "path", "name": "id", "required": true, "type": "string"}
    },
    "definitions": {
        "domain.APIError": {"type": "object", "properties": {"code": {"type": "integer"}, "text": {"type": "string"}}},
        "domain.APIEnvelope": {"type": "object", "properties": {"error": {"$ref": "#/definitions/domain.APIError"}, "response": {}, "data": {}}},
        "session.createRequest": {"type": "object", "properties": {"role": {"type": "string", "enum": ["student", "teacher", "admin"]}, "passcode": {"type": "string"}}},
        "viewer.strokeRequest": {"type": "object", "properties": {
            "points": {"type": "array", "items": {"type": "object", "properties": {"x": {"type": "number"}, "y": {"type": "number"}}}},
            "color": {"type": "string"},
            "width": {"type": "number"},
            "erase": {"type": "boolean"},
            "view": {"type": "object", "properties": {"width": {"type": "number"}, "height": {"type": "number"}, "rotation": {"type": "integer"}}}
        }}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Book Module API",
	Description:      "Страницы книг, ресурсы страниц и аннотации читателя.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
