package main

// General API documentation for swaggo. Run `swag init -g cmd/localchat/docs.go`
// to generate docs.
//
// @title           localchat API
// @version         1.0
// @description     Chat relay, model catalog and model inventory in front of Ollama and OpenAI.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
