package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the note service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>noteservice — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the note endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "noteservice", "version": "v0.1.0" },
  "paths": {
    "/api/notes": {
      "get": {
        "summary": "List notes ordered by creation time",
        "parameters": [
          { "name": "limit", "in": "query", "schema": { "type": "integer" } },
          { "name": "offset", "in": "query", "schema": { "type": "integer" } },
          { "name": "page", "in": "query", "schema": { "type": "integer" } }
        ],
        "responses": { "200": { "description": "envelope with note list" } }
      },
      "post": {
        "summary": "Create a note",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"content":{"type":"string"}},"required":["title"]}}}},
        "responses": { "201": { "description": "created note" }, "400": { "description": "invalid input" }, "409": { "description": "duplicate title" } }
      }
    },
    "/api/notes/{id}": {
      "get": { "summary": "Get a note by id", "responses": { "200": { "description": "note" }, "400": { "description": "malformed id" }, "404": { "description": "not found" } } },
      "patch": {
        "summary": "Partially update a note",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"content":{"type":"string"}}}}}},
        "responses": { "200": { "description": "updated note" }, "400": { "description": "empty or invalid update" }, "404": { "description": "not found" } }
      },
      "delete": { "summary": "Delete a note", "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/api/healthchecker": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" } } } }
  }
}`
