// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Analyzer, ai.Embedder, and
// ai.Provider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic
// behavior via function-field injection.
package mock
