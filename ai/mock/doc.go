// Package mock provides deterministic test doubles for the ai interfaces.
// No external services are contacted; embeddings are derived from an FNV
// hash of the input so identical text always embeds identically.
package mock
