// Package token generates, normalizes and validates project access tokens.
//
// A token has the fixed shape JW-XXXX-XXXX-XXXX where every X is one of the 36
// characters [A-Z0-9]. The formatted string is the project's primary key in every
// store backend and doubles as the credential a client uses to view the project.
//
// Normalize and Validate are deliberately separate steps so the admin dashboard can
// normalize while the operator types and validate to colour the field.
package token
