//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggo/swag"

	httpSwagger "github.com/swaggo/http-swagger"
)

// apiDoc is served as doc.json until `swag init` output replaces it.
const apiDoc = `{
  "swagger": "2.0",
  "info": {
    "title": "localchat API",
    "description": "Chat relay and model management in front of Ollama and OpenAI.",
    "version": "1.0"
  },
  "basePath": "/",
  "schemes": ["http"],
  "paths": {
    "/chat": {"post": {"tags": ["chat"], "summary": "Stream a chat completion", "produces": ["text/event-stream"]}},
    "/models/catalog": {"get": {"tags": ["models"], "summary": "Downloadable model catalog"}},
    "/models/tags": {"get": {"tags": ["models"], "summary": "Tag variants of a model"}},
    "/models/local": {
      "get": {"tags": ["models"], "summary": "Installed models"},
      "delete": {"tags": ["models"], "summary": "Delete installed models"}
    },
    "/models/manage": {"post": {"tags": ["models"], "summary": "Pull or delete one model"}},
    "/models/pull-stream": {
      "get": {"tags": ["models"], "summary": "Pull stream liveness"},
      "post": {"tags": ["models"], "summary": "Stream a model download", "produces": ["text/event-stream"]}
    },
    "/models/openai": {"get": {"tags": ["models"], "summary": "Chat models of an OpenAI account"}},
    "/test-connection": {"post": {"tags": ["connection"], "summary": "Test an upstream connection"}}
  }
}`

type staticDoc string

func (d staticDoc) ReadDoc() string { return string(d) }

func init() {
	swag.Register(swag.Name, staticDoc(apiDoc))
}

// MountSwagger serves Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
