package main

import (
	"os"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers study questions about a university programme from its
// module handbook, weekly schedule and general documents.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Campus Advisor API
//   description: |
//     Question answering over a course catalog. Schedule and module list
//     questions are answered from structured records, everything else from
//     retrieved document text.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
