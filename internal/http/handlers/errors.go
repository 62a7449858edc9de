package handlers

import "errors"

var errMissingReference = errors.New("name or category is required")
