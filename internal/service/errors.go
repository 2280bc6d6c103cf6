// Package service holds the error taxonomy shared by the workflow packages.
package service

import "errors"

var (
	ErrValidation          = errors.New("validation")               // 400
	ErrEmptyCart           = errors.New("no order items")           // 400
	ErrInsufficientStock   = errors.New("insufficient stock")       // 400
	ErrRatingRequired      = errors.New("please select a rating")   // 400
	ErrInvalidRating       = errors.New("rating must be 1..5")      // 400
	ErrInvalidCredentials  = errors.New("invalid credentials")      // 401
	ErrInvalidRefreshToken = errors.New("invalid refresh token")    // 401
	ErrNotAuthorized       = errors.New("not authorized")           // 403
	ErrNotFound            = errors.New("not found")                // 404
	ErrProductNotFound     = errors.New("product not found")        // 404
	ErrOrderNotFound       = errors.New("order not found")          // 404
	ErrConflict            = errors.New("conflict")                 // 409
	ErrDuplicateReview     = errors.New("product already reviewed") // 409
)
