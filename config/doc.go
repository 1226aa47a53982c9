// Package config loads the application configuration.
//
// Values come from three layers, later layers winning:
//
//  1. Built-in defaults (Default).
//  2. A TOML file, respostas.toml unless another path is given.
//  3. Environment variables prefixed RESPOSTAS_, optionally read from a .env file.
//
// Example respostas.toml:
//
//	[storage]
//	backend = "csv"
//	path = "respostas.csv"
//
//	[embedding]
//	host = "http://localhost:11434"
//	model = "all-minilm"
//	dimensions = 384
//	timeout = "30s"
//
//	[access]
//	user = "DPL"
//	password_hash = "$2a$10$..."
package config
