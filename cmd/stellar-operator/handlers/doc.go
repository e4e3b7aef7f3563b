// Package handlers implements the business logic behind each CLI command.
package handlers
