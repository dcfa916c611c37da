// Package validator checks request structs against `validate` tags and reports
// failures keyed by the field's JSON name, ready for the error envelope.
package validator
