// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// This package implements the ai.Provider interface using the langchaingo
// library to communicate with OpenAI or OpenAI-compatible services (such as
// Ollama, LocalAI, or vLLM). Analysis calls run in JSON mode; the analyzer
// strips markdown fences and repairs common JSON defects before handing the
// payload back to the pipeline for schema validation.
package openai
