/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"api-manager/src/internal/constants"
)

// GetErrorResponse maps service layer errors to HTTP error responses.
// Unrecognized errors map to a generic 500 without leaking internals.
func GetErrorResponse(err error) (int, *ErrorResponse) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, NewErrorResponse(
			http.StatusBadRequest, "Validation failed", formatValidationErrors(validationErrs))
	}

	switch {
	case errors.Is(err, constants.ErrAPINotFound):
		return http.StatusNotFound, NewErrorResponse(
			http.StatusNotFound, "API not found", err.Error())
	case errors.Is(err, constants.ErrPlanNotFound):
		return http.StatusNotFound, NewErrorResponse(
			http.StatusNotFound, "Plan not found", err.Error())
	case errors.Is(err, constants.ErrAPIAlreadyExists):
		return http.StatusConflict, NewErrorResponse(
			http.StatusConflict, "API already exists", err.Error())
	case errors.Is(err, constants.ErrDeploymentConflict):
		return http.StatusConflict, NewErrorResponse(
			http.StatusConflict, "Deployment conflict", err.Error())
	case errors.Is(err, constants.ErrAPIRunning):
		return http.StatusConflict, NewErrorResponse(
			http.StatusConflict, "API is running", err.Error())
	case errors.Is(err, constants.ErrLifecycleTransitionNotAllowed):
		return http.StatusBadRequest, NewErrorResponse(
			http.StatusBadRequest, "Lifecycle transition not allowed", err.Error())
	case errors.Is(err, constants.ErrNoPublishedSnapshot):
		return http.StatusBadRequest, NewErrorResponse(
			http.StatusBadRequest, "No published snapshot", err.Error())
	case errors.Is(err, constants.ErrInvalidAPIName),
		errors.Is(err, constants.ErrInvalidAPIVersion),
		errors.Is(err, constants.ErrInvalidLifecycleState),
		errors.Is(err, constants.ErrInvalidEventType),
		errors.Is(err, constants.ErrInvalidPlanStatus):
		return http.StatusBadRequest, NewErrorResponse(
			http.StatusBadRequest, "Invalid request", err.Error())
	default:
		return http.StatusInternalServerError, NewErrorResponse(
			http.StatusInternalServerError, "Internal server error",
			"An unexpected error occurred while processing the request")
	}
}

// formatValidationErrors converts validator errors into a readable description
func formatValidationErrors(errs validator.ValidationErrors) string {
	messages := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		switch fieldErr.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("field '%s' is required", fieldErr.Field()))
		case "max":
			messages = append(messages, fmt.Sprintf("field '%s' exceeds maximum length of %s", fieldErr.Field(), fieldErr.Param()))
		case "min":
			messages = append(messages, fmt.Sprintf("field '%s' is below minimum length of %s", fieldErr.Field(), fieldErr.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("field '%s' must be one of [%s]", fieldErr.Field(), fieldErr.Param()))
		default:
			messages = append(messages, fmt.Sprintf("field '%s' failed validation '%s'", fieldErr.Field(), fieldErr.Tag()))
		}
	}
	return strings.Join(messages, "; ")
}
